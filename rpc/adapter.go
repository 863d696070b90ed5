package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.bryk.io/compute/broker"
	xlog "go.bryk.io/compute/log"
	"go.bryk.io/compute/otel"
)

// DefaultPoolSize is the worker pool ceiling an AdapterConsumer uses
// when WithPoolSize is not supplied.
const DefaultPoolSize = 1024

// replyProducer stamps every reply with a unique message id and publish
// timestamp, matching envelopeProducer's conventions on the reply leg.
var replyProducer = &broker.Producer{
	ContentType: "application/json",
	MessageType: "rpc.reply",
	SetID:       true,
	SetTime:     true,
}

// AdapterOption adjusts an AdapterConsumer's settings at construction.
type AdapterOption func(*AdapterConsumer)

// WithPoolSize bounds the number of handler dispatches an AdapterConsumer
// runs concurrently. Submitting a task beyond the limit simply queues
// behind the broker delivery channel; it never blocks the pool itself.
func WithPoolSize(n int) AdapterOption {
	return func(a *AdapterConsumer) {
		if n > 0 {
			a.pool = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger used to report malformed envelopes, unknown
// methods and reply failures.
func WithLogger(ll xlog.Logger) AdapterOption {
	return func(a *AdapterConsumer) {
		a.log = ll
	}
}

// WithTracer attaches an instrumentation component; when set, every
// dispatch gets its own span covering the handler invocation and reply.
func WithTracer(cmp *otel.Component) AdapterOption {
	return func(a *AdapterConsumer) {
		a.tracer = cmp
	}
}

// AdapterConsumer decodes inbound envelopes off a broker.Consumer,
// dispatches them to a Registry on a bounded worker pool, and publishes
// replies through a dedicated reply connection. The reply connection
// must be distinct from the one backing consumer, since a Connection's
// session status is consumed exclusively by whichever Consumer or
// Publisher owns it.
type AdapterConsumer struct {
	consumer  *broker.Consumer
	replyConn *broker.Connection
	replyMu   sync.Mutex
	registry  *Registry
	log       xlog.Logger
	tracer    *otel.Component
	pool      chan struct{}
	subID     string
	wg        sync.WaitGroup
	ctx       context.Context
	halt      context.CancelFunc
}

// NewAdapterConsumer builds an AdapterConsumer over an already-configured
// broker.Consumer, replying through replyConn for any envelope carrying
// a MsgID.
func NewAdapterConsumer(consumer *broker.Consumer, replyConn *broker.Connection, registry *Registry, opts ...AdapterOption) *AdapterConsumer {
	ctx, halt := context.WithCancel(context.Background())
	a := &AdapterConsumer{
		consumer:  consumer,
		replyConn: replyConn,
		registry:  registry,
		log:       xlog.Discard(),
		pool:      make(chan struct{}, DefaultPoolSize),
		ctx:       ctx,
		halt:      halt,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start subscribes to queue and begins dispatching deliveries in the
// background.
func (a *AdapterConsumer) Start(queue string) error {
	deliveries, id, err := a.consumer.Subscribe(broker.SubscribeOptions{Queue: queue})
	if err != nil {
		return err
	}
	a.subID = id
	go a.loop(deliveries)
	return nil
}

// Stop halts dispatch, waits for in-flight handlers to finish, and closes
// the underlying subscription.
func (a *AdapterConsumer) Stop() error {
	a.halt()
	a.wg.Wait()
	if a.subID == "" {
		return nil
	}
	return a.consumer.CloseSubscription(a.subID)
}

func (a *AdapterConsumer) loop(deliveries <-chan broker.Delivery) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			// Every inbound envelope is acked exactly once before the
			// handler runs; duplicate deliveries are possible and
			// handlers must tolerate them.
			_ = d.Ack(false)

			select {
			case a.pool <- struct{}{}:
			case <-a.ctx.Done():
				return
			}
			a.wg.Add(1)
			body := d.Body
			go func() {
				defer a.wg.Done()
				defer func() { <-a.pool }()
				a.dispatch(body)
			}()
		}
	}
}

func (a *AdapterConsumer) dispatch(body []byte) {
	var wire map[string]interface{}
	if err := json.Unmarshal(body, &wire); err != nil {
		a.log.WithField("error", err.Error()).Warning("received a malformed envelope")
		return
	}

	env, ctx := Unpack(wire)
	if env.Method == "" {
		a.log.WithField("envelope", wire).Warning("no method for message")
		a.reply(env.MsgID, nil, fmt.Errorf("No method for message: %v", wire))
		return
	}

	handler, ok := a.registry.Lookup(env.Method)
	if !ok {
		a.reply(env.MsgID, nil, fmt.Errorf("No method for message: %s", env.Method))
		return
	}

	var span otel.Span
	if a.tracer != nil {
		span = a.tracer.Start(context.Background(), "rpc.dispatch."+env.Method)
	}
	result, err := handler(ctx, env.Args)
	if span != nil {
		span.End(err)
	}
	if env.MsgID == "" {
		if err != nil {
			a.log.WithField("error", err.Error()).Error("handler failed for a one-way invocation")
		}
		return
	}
	a.reply(env.MsgID, result, err)
}

// reply publishes a Reply envelope to msgID's direct exchange. A handler
// invoked without a MsgID (cast/fanout_cast) never reaches here.
func (a *AdapterConsumer) reply(msgID string, result interface{}, err error) {
	if msgID == "" {
		return
	}

	r := Reply{Result: result}
	if err != nil {
		r.Failure = newFailure(err)
	}
	body, mErr := json.Marshal(r)
	if mErr != nil {
		a.log.WithField("error", mErr.Error()).Error("failed to encode reply")
		return
	}

	// Only one Publisher may be alive on replyConn at a time, since a
	// session's status events have exactly one reader. Concurrent
	// dispatches share this connection, so the open/push/close cycle is
	// serialized here rather than handed a connection per reply.
	a.replyMu.Lock()
	defer a.replyMu.Unlock()

	pub, pErr := broker.DirectPublisher(a.replyConn, msgID)
	if pErr != nil {
		a.log.WithField("error", pErr.Error()).Error("failed to open reply publisher")
		return
	}
	defer func() { _ = pub.Close() }()

	opts := broker.MessageOptions{Exchange: msgID, RoutingKey: msgID}
	if pushErr := pub.UnsafePush(replyProducer.Message(body), opts); pushErr != nil {
		a.log.WithField("error", pushErr.Error()).Error("failed to publish reply")
	}
}
