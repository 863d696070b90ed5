package rpc

import (
	"testing"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/compute/reqcontext"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	assert := tdd.New(t)

	rc := reqcontext.NewRequestContext("acme", "alice", []string{"ops"}, "10.0.0.5")
	env := Envelope{
		Method: "echo",
		Args:   Args{"value": float64(42)},
		MsgID:  "abc123",
	}

	wire := Pack(env, rc)
	assert.Equal("echo", wire["method"])
	assert.Equal("abc123", wire["_msg_id"])
	assert.Equal(rc.Tenant, wire["_context_tenant"])

	restored, restoredCtx := Unpack(wire)
	assert.Equal(env.Method, restored.Method)
	assert.Equal(env.MsgID, restored.MsgID)
	assert.Equal(env.Args["value"], restored.Args["value"])
	assert.Equal(rc.Tenant, restoredCtx.Tenant)
	assert.Equal(rc.RequestID, restoredCtx.RequestID)
}

func TestUnpackIgnoresUnrelatedKeys(t *testing.T) {
	assert := tdd.New(t)
	env, ctx := Unpack(map[string]interface{}{
		"method":    "echo",
		"unrelated": "ignored",
	})
	assert.Equal("echo", env.Method)
	assert.Empty(env.MsgID)
	assert.Empty(ctx.Tenant)
}

func TestRegistryLookup(t *testing.T) {
	assert := tdd.New(t)
	reg := NewRegistry()
	reg.Register("echo", func(ctx reqcontext.RequestContext, args Args) (interface{}, error) {
		return args["value"], nil
	})

	fn, ok := reg.Lookup("echo")
	assert.True(ok)
	result, err := fn(reqcontext.RequestContext{}, Args{"value": "hi"})
	assert.Nil(err)
	assert.Equal("hi", result)

	_, ok = reg.Lookup("missing")
	assert.False(ok)
}
