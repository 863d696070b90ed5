// Package rpc implements the call/cast/fanout_cast verbs and the
// envelope marshalling contract that ties a Service's handler object to
// the broker package's transport primitives.
package rpc

import (
	"strings"

	"go.bryk.io/compute/reqcontext"
)

// contextPrefix namespaces a RequestContext's fields on the wire so they
// can sit alongside handler arguments in the same flat JSON object.
const contextPrefix = "_context_"

// Args is the normalized mapping of argument name to value a handler
// receives.
type Args = map[string]interface{}

// Envelope is the decoded form of an inbound or outbound RPC message:
// a method name, its arguments, and an optional reply identifier whose
// presence means the sender expects a Reply.
type Envelope struct {
	Method string `json:"method"`
	Args   Args   `json:"args"`
	MsgID  string `json:"_msg_id,omitempty"`
}

// Pack flattens ctx into "_context_"-prefixed top-level keys and merges
// them with env's method/args/msg-id into the flat map that actually
// goes on the wire.
func Pack(env Envelope, ctx reqcontext.RequestContext) map[string]interface{} {
	wire := map[string]interface{}{
		"method": env.Method,
		"args":   normalizeArgs(env.Args),
	}
	if env.MsgID != "" {
		wire["_msg_id"] = env.MsgID
	}
	for k, v := range ctx.ToMap() {
		wire[contextPrefix+k] = v
	}
	return wire
}

// Unpack splits a flat wire map back into an Envelope and the
// RequestContext it carried, removing the "_context_" keys in the
// process so the residual envelope only contains handler-facing fields.
func Unpack(wire map[string]interface{}) (Envelope, reqcontext.RequestContext) {
	env := Envelope{Args: Args{}}
	ctxFields := map[string]string{}
	for k, v := range wire {
		switch {
		case k == "method":
			if s, ok := v.(string); ok {
				env.Method = s
			}
		case k == "_msg_id":
			if s, ok := v.(string); ok {
				env.MsgID = s
			}
		case k == "args":
			if m, ok := v.(map[string]interface{}); ok {
				env.Args = normalizeArgs(m)
			}
		case strings.HasPrefix(k, contextPrefix):
			if s, ok := v.(string); ok {
				ctxFields[strings.TrimPrefix(k, contextPrefix)] = s
			}
		}
	}
	return env, reqcontext.FromMap(ctxFields)
}

// normalizeArgs exists for parity with the source's coercion of argument
// keys to plain strings before invoking a handler, guarding against
// non-string dict keys rejecting the call at the receiver. Go's
// map[string]interface{} decoded from JSON already has string keys, so
// there is nothing left to coerce; the function is kept as the single
// place that contract is documented.
func normalizeArgs(m Args) Args {
	if m == nil {
		return Args{}
	}
	return m
}
