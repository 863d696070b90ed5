package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
	"go.bryk.io/compute/broker"
	"go.bryk.io/compute/reqcontext"
	"go.bryk.io/compute/rpc"
	"go.bryk.io/compute/service"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingHandler implements service.Handler, service.StateReporter and
// service.PeriodicTasksRunner, counting how many times each hook fires.
type countingHandler struct {
	reports  int32
	periodic int32
}

func (h *countingHandler) Register(reg *rpc.Registry) {
	reg.Register("echo", func(_ reqcontext.RequestContext, args rpc.Args) (interface{}, error) {
		return args["value"], nil
	})
}

func (h *countingHandler) ReportState() {
	atomic.AddInt32(&h.reports, 1)
}

func (h *countingHandler) PeriodicTasks() {
	atomic.AddInt32(&h.periodic, 1)
}

func testConfig(t *testing.T) service.Config {
	return service.Config{
		Host:             "node-a",
		Binary:           "computed",
		Topic:            t.Name(),
		ControlExchange:  "compute",
		FakeRabbit:       true,
		ReportInterval:   20 * time.Millisecond,
		PeriodicInterval: 20 * time.Millisecond,
	}
}

func TestServiceStartStop(t *testing.T) {
	assert := tdd.New(t)
	handler := &countingHandler{}
	svc := service.New(testConfig(t), handler)

	assert.Nil(svc.Start())
	time.Sleep(80 * time.Millisecond)
	assert.Nil(svc.Stop())
	svc.Wait()

	assert.True(atomic.LoadInt32(&handler.reports) > 0, "report_state should have fired at least once")
	assert.True(atomic.LoadInt32(&handler.periodic) > 0, "periodic_tasks should have fired at least once")

	// A second Stop is a no-op.
	assert.Nil(svc.Stop())
}

func TestServiceStartTwiceFails(t *testing.T) {
	assert := tdd.New(t)
	svc := service.New(testConfig(t), &countingHandler{})
	assert.Nil(svc.Start())
	defer func() { _ = svc.Stop() }()

	assert.NotNil(svc.Start())
}

func TestServiceSharedTopicReachableByCall(t *testing.T) {
	assert := tdd.New(t)
	cfg := testConfig(t)
	svc := service.New(cfg, &countingHandler{})
	assert.Nil(svc.Start())
	defer func() { _ = svc.Stop() }()

	mgr := broker.NewManager("fake://"+cfg.ControlExchange, broker.WithFakeBackend())
	rc := reqcontext.NewRequestContext("acme", "alice", nil, "127.0.0.1")
	result, err := rpc.Call(context.Background(), mgr, rc, cfg.ControlExchange, cfg.Topic, rpc.Envelope{
		Method: "echo",
		Args:   rpc.Args{"value": "hi"},
	})
	assert.Nil(err)
	assert.Equal("hi", result)
}
