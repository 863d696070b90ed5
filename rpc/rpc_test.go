package rpc_test

import (
	"context"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/compute/broker"
	"go.bryk.io/compute/internal/echo"
	"go.bryk.io/compute/reqcontext"
	"go.bryk.io/compute/rpc"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixture wires an echo.Manager behind an AdapterConsumer subscribed to
// "workers" on the "compute" control exchange, all over the in-process
// fake broker backend, and returns the Manager a caller uses to reach it.
func fixture(t *testing.T) (*broker.Manager, func()) {
	t.Helper()
	addr := "fake://" + t.Name()
	mgr := broker.NewManager(addr, broker.WithFakeBackend())

	consumerConn, err := mgr.Instance(true)
	tdd.New(t).Nil(err, "open consumer connection")
	consumer, err := broker.TopicConsumer(consumerConn, "compute", "workers")
	tdd.New(t).Nil(err, "open topic consumer")

	replyConn, err := mgr.Instance(true)
	tdd.New(t).Nil(err, "open reply connection")

	registry := rpc.NewRegistry()
	(&echo.Manager{}).Register(registry)

	adapter := rpc.NewAdapterConsumer(consumer, replyConn, registry)
	tdd.New(t).Nil(adapter.Start("workers"))

	cleanup := func() {
		_ = adapter.Stop()
		_ = consumer.Close()
		_ = replyConn.Close()
	}
	return mgr, cleanup
}

func TestCallEcho(t *testing.T) {
	assert := tdd.New(t)
	mgr, cleanup := fixture(t)
	defer cleanup()

	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")
	result, err := rpc.Call(context.Background(), mgr, rc, "compute", "workers", rpc.Envelope{
		Method: "echo",
		Args:   rpc.Args{"value": "hi"},
	})
	assert.Nil(err)
	assert.Equal("hi", result)
}

func TestCallFailReturnsRemoteError(t *testing.T) {
	assert := tdd.New(t)
	mgr, cleanup := fixture(t)
	defer cleanup()

	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")
	_, err := rpc.Call(context.Background(), mgr, rc, "compute", "workers", rpc.Envelope{
		Method: "fail",
		Args:   rpc.Args{"value": "boom"},
	})
	assert.NotNil(err)
	var remote *rpc.RemoteError
	assert.True(asRemoteError(err, &remote))
	assert.Contains(remote.Value, "boom")
}

func TestCallMissingMethodOnRegistry(t *testing.T) {
	assert := tdd.New(t)
	mgr, cleanup := fixture(t)
	defer cleanup()

	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")
	_, err := rpc.Call(context.Background(), mgr, rc, "compute", "workers", rpc.Envelope{
		Method: "does-not-exist",
		Args:   rpc.Args{},
	})
	assert.NotNil(err)
	var remote *rpc.RemoteError
	assert.True(asRemoteError(err, &remote))
	assert.Contains(remote.Value, "No method")
}

func TestCallRespectsContextDeadline(t *testing.T) {
	assert := tdd.New(t)
	// No adapter is listening on this topic; the call must time out
	// rather than block forever.
	mgr := broker.NewManager("fake://"+t.Name(), broker.WithFakeBackend())
	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rpc.Call(ctx, mgr, rc, "compute", "unbound-topic", rpc.Envelope{Method: "echo"})
	assert.NotNil(err)
	assert.Equal(context.DeadlineExceeded, err)
}

func TestCastIsFireAndForget(t *testing.T) {
	assert := tdd.New(t)
	mgr, cleanup := fixture(t)
	defer cleanup()

	publishConn, err := mgr.Instance(true)
	assert.Nil(err)
	defer func() { _ = publishConn.Close() }()

	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")
	err = rpc.Cast(publishConn, rc, "compute", "workers", rpc.Envelope{
		Method: "echo",
		Args:   rpc.Args{"value": "fire-and-forget"},
	})
	assert.Nil(err)
}

func asRemoteError(err error, target **rpc.RemoteError) bool {
	re, ok := err.(*rpc.RemoteError)
	if !ok {
		return false
	}
	*target = re
	return true
}
