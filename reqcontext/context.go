// Package reqcontext carries the opaque security/trace value threaded
// through every RPC envelope: who issued a call, on whose behalf, and
// when. It is packed onto the wire by the rpc package and reconstructed
// by the receiving AdapterConsumer before a handler runs.
package reqcontext

import (
	"crypto/rand"
	"time"
)

// requestIDAlphabet is the character set a RequestID is drawn from.
const requestIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"

// requestIDLength is the number of characters generated for a RequestID.
const requestIDLength = 20

// RequestContext is the security and trace context propagated with every
// RPC call. It is opaque to handler code beyond its named fields.
type RequestContext struct {
	Tenant        string    `json:"tenant"`
	User          string    `json:"user"`
	Groups        []string  `json:"groups"`
	RemoteAddress string    `json:"remote_address"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id"`
}

// NewRequestContext builds a RequestContext for a freshly-ingressed
// request, stamping it with the current time and a newly generated
// RequestID. Tenant, User, Groups and RemoteAddress are supplied by the
// caller (typically extracted from an upstream auth layer).
func NewRequestContext(tenant, user string, groups []string, remoteAddress string) RequestContext {
	return RequestContext{
		Tenant:        tenant,
		User:          user,
		Groups:        groups,
		RemoteAddress: remoteAddress,
		Timestamp:     time.Now().UTC(),
		RequestID:     newRequestID(),
	}
}

func newRequestID() string {
	buf := make([]byte, requestIDLength)
	_, _ = rand.Read(buf)
	id := make([]byte, requestIDLength)
	for i, b := range buf {
		id[i] = requestIDAlphabet[int(b)%len(requestIDAlphabet)]
	}
	return string(id)
}

// ToMap flattens the context into a plain string-keyed map suitable for
// packing onto an envelope; values must individually round-trip through
// a single wire key, so Groups is joined with commas and Timestamp is
// rendered as RFC3339.
func (rc RequestContext) ToMap() map[string]string {
	groups := ""
	for i, g := range rc.Groups {
		if i > 0 {
			groups += ","
		}
		groups += g
	}
	return map[string]string{
		"tenant":         rc.Tenant,
		"user":           rc.User,
		"groups":         groups,
		"remote_address": rc.RemoteAddress,
		"timestamp":      rc.Timestamp.Format(time.RFC3339),
		"request_id":     rc.RequestID,
	}
}

// FromMap reconstructs a RequestContext from the map produced by ToMap.
// Missing keys are left at their zero value; a malformed timestamp falls
// back to the zero time rather than failing the reconstruction, since a
// context with a bad clock is still preferable to a dropped envelope.
func FromMap(m map[string]string) RequestContext {
	rc := RequestContext{
		Tenant:        m["tenant"],
		User:          m["user"],
		RemoteAddress: m["remote_address"],
		RequestID:     m["request_id"],
	}
	if groups, ok := m["groups"]; ok && groups != "" {
		start := 0
		for i := 0; i <= len(groups); i++ {
			if i == len(groups) || groups[i] == ',' {
				rc.Groups = append(rc.Groups, groups[start:i])
				start = i + 1
			}
		}
	}
	if ts, ok := m["timestamp"]; ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rc.Timestamp = parsed
		}
	}
	return rc
}
