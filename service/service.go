package service

import (
	"fmt"
	"sync"

	"go.bryk.io/compute/broker"
	"go.bryk.io/compute/errors"
	xlog "go.bryk.io/compute/log"
	"go.bryk.io/compute/otel"
	"go.bryk.io/compute/rpc"
)

// Handler is the unit of domain logic a Service dispatches RPC calls,
// casts and fanout casts to. Register binds its exported operations onto
// reg under the names remote callers invoke them by.
type Handler interface {
	Register(reg *rpc.Registry)
}

// StateReporter is implemented by a Handler that wants report_state
// invoked every Config.ReportInterval. A Handler that doesn't implement
// it simply never gets the timer scheduled.
type StateReporter interface {
	ReportState()
}

// PeriodicTasksRunner is implemented by a Handler that wants
// periodic_tasks invoked every Config.PeriodicInterval.
type PeriodicTasksRunner interface {
	PeriodicTasks()
}

// Option adjusts a Service at construction.
type Option func(*Service)

// WithLogger sets the logger used to report consumer lifecycle events.
// Discarded by default.
func WithLogger(ll xlog.Logger) Option {
	return func(s *Service) {
		s.log = ll
	}
}

// WithTracer attaches an instrumentation component; when set, every
// AdapterConsumer dispatch gets its own span.
func WithTracer(cmp *otel.Component) Option {
	return func(s *Service) {
		s.tracer = cmp
	}
}

// Service is the worker runtime a compute node runs. It owns exactly
// three broker connections for consumption (the shared topic, the
// per-host topic and the fanout), each attached to its own
// rpc.AdapterConsumer bound to a single shared registry. Each
// AdapterConsumer also gets its own reply connection, so a started
// Service holds six broker connections in all, plus whatever
// report_state / periodic_tasks timers the handler opts into.
type Service struct {
	cfg     Config
	handler Handler
	log     xlog.Logger
	tracer  *otel.Component

	mgr      *broker.Manager
	registry *rpc.Registry

	conns    []*broker.Connection
	adapters []*rpc.AdapterConsumer
	timers   []*LoopingCall

	mu      sync.Mutex
	started bool
}

// New builds a Service for handler, filling in cfg's zero fields with
// their defaults.
func New(cfg Config, handler Handler, opts ...Option) *Service {
	cfg.defaults()
	s := &Service{
		cfg:      cfg,
		handler:  handler,
		log:      xlog.Discard(),
		registry: rpc.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	handler.Register(s.registry)
	return s
}

// brokerAddr builds the broker.NewConnection address for cfg, honoring
// FakeRabbit.
func brokerAddr(cfg Config) string {
	if cfg.FakeRabbit {
		return "fake://" + cfg.ControlExchange
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.RabbitUser, cfg.RabbitPassword, cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitVirtualHost)
}

func brokerOptions(cfg Config, log xlog.Logger) []broker.Option {
	opts := []broker.Option{
		broker.WithRetry(cfg.RabbitRetryInterval, cfg.RabbitMaxRetries),
		broker.WithLogger(log),
	}
	if cfg.FakeRabbit {
		opts = append(opts, broker.WithFakeBackend())
	}
	return opts
}

type topicKind int

const (
	sharedTopic topicKind = iota
	hostTopic
	fanoutTopic
)

// Start opens six broker connections (a consumer connection and a reply
// connection for each of the three delivery shapes), attaches their
// consumers and AdapterConsumers, and schedules the report_state / periodic_tasks
// timers the handler declared support for. Start is not re-entrant; a
// Service that has already been started returns an error.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("service already started")
	}

	s.mgr = broker.NewManager(brokerAddr(s.cfg), brokerOptions(s.cfg, s.log)...)

	kinds := []struct {
		kind  topicKind
		topic string
		queue string
	}{
		{sharedTopic, s.cfg.Topic, s.cfg.Topic},
		{hostTopic, s.cfg.Topic, s.cfg.Topic + "." + s.cfg.Host},
		{fanoutTopic, s.cfg.Topic, ""},
	}

	for _, k := range kinds {
		if err := s.attach(k.kind, k.topic, k.queue); err != nil {
			s.teardown()
			return err
		}
	}

	if s.cfg.ReportInterval > 0 {
		if reporter, ok := s.handler.(StateReporter); ok {
			t := NewLoopingCall(reporter.ReportState, s.cfg.ReportInterval, s.log)
			t.Start(false)
			s.timers = append(s.timers, t)
		}
	}
	if s.cfg.PeriodicInterval > 0 {
		if runner, ok := s.handler.(PeriodicTasksRunner); ok {
			t := NewLoopingCall(runner.PeriodicTasks, s.cfg.PeriodicInterval, s.log)
			t.Start(false)
			s.timers = append(s.timers, t)
		}
	}

	s.started = true
	return nil
}

// attach opens a consumer connection and a dedicated reply connection
// for one of the three delivery shapes, and starts its AdapterConsumer.
func (s *Service) attach(kind topicKind, topic, queue string) error {
	consumerConn, err := s.mgr.Instance(true)
	if err != nil {
		return err
	}
	s.conns = append(s.conns, consumerConn)

	var consumer *broker.Consumer
	switch kind {
	case sharedTopic, hostTopic:
		consumer, err = broker.TopicConsumer(consumerConn, s.cfg.ControlExchange, queue)
	case fanoutTopic:
		consumer, err = broker.FanoutConsumer(consumerConn, topic)
	}
	if err != nil {
		return err
	}

	replyConn, err := s.mgr.Instance(true)
	if err != nil {
		return err
	}
	s.conns = append(s.conns, replyConn)

	adapterOpts := []rpc.AdapterOption{rpc.WithPoolSize(s.cfg.RPCThreadPoolSize), rpc.WithLogger(s.log)}
	if s.tracer != nil {
		adapterOpts = append(adapterOpts, rpc.WithTracer(s.tracer))
	}
	adapter := rpc.NewAdapterConsumer(consumer, replyConn, s.registry, adapterOpts...)
	if err := adapter.Start(consumer.QueueName()); err != nil {
		return err
	}
	s.adapters = append(s.adapters, adapter)
	return nil
}

// Stop halts every timer and AdapterConsumer and closes every broker
// connection the Service opened. Safe to call once; a second call is a
// no-op.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.teardown()
	s.started = false
	return nil
}

// Kill is an alias for Stop, matching the source's immediate-shutdown
// entry point.
func (s *Service) Kill() error {
	return s.Stop()
}

// Wait blocks until every scheduled timer has fully exited. It does not
// imply Stop; call Stop first to actually halt the timers.
func (s *Service) Wait() {
	for _, t := range s.timers {
		t.Wait()
	}
}

// teardown stops timers, adapters and connections in reverse dependency
// order. Must be called with s.mu held.
func (s *Service) teardown() {
	for _, t := range s.timers {
		t.Stop()
	}
	for _, t := range s.timers {
		t.Wait()
	}
	s.timers = nil

	for _, a := range s.adapters {
		_ = a.Stop()
	}
	s.adapters = nil

	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
}
