package broker

import (
	"crypto/tls"
	"strings"
	"sync"

	driver "github.com/rabbitmq/amqp091-go"
	"go.bryk.io/compute/errors"
)

// memory.go implements the "fake_rabbit" backend: an in-process stand-in
// for a live AMQP091 broker, selected with WithFakeBackend. It satisfies
// connDriver/channelDriver so session, Consumer and Publisher operate
// unmodified regardless of which backend is in use.
//
// Brokers are keyed by address so that multiple Connections dialing the
// same fake address (as Service does for its six broker connections)
// observe the same exchanges, queues and bindings.

var fakeBrokers = struct {
	mu     sync.Mutex
	byAddr map[string]*fakeBroker
}{byAddr: map[string]*fakeBroker{}}

func fakeBrokerFor(addr string) *fakeBroker {
	fakeBrokers.mu.Lock()
	defer fakeBrokers.mu.Unlock()
	b, ok := fakeBrokers.byAddr[addr]
	if !ok {
		b = &fakeBroker{
			exchanges: map[string]*fakeExchange{},
			queues:    map[string]*fakeQueue{},
		}
		fakeBrokers.byAddr[addr] = b
	}
	return b
}

type fakeExchange struct {
	kind     string
	bindings []fakeBinding
}

type fakeBinding struct {
	queue   string
	pattern string
}

type fakeQueue struct {
	deliveries chan driver.Delivery
}

type fakeBroker struct {
	mu        sync.Mutex
	exchanges map[string]*fakeExchange
	queues    map[string]*fakeQueue
}

func dialFake(addr string, _ *tls.Config) (connDriver, error) {
	return fakeConn{b: fakeBrokerFor(addr)}, nil
}

type fakeConn struct {
	b *fakeBroker
}

func (f fakeConn) Channel() (channelDriver, error) {
	return &fakeChannel{b: f.b}, nil
}

func (f fakeConn) Close() error { return nil }

func (f fakeConn) IsClosed() bool { return false }

// NotifyClose never fires: the in-process backend never drops a
// connection on its own.
func (f fakeConn) NotifyClose(c chan *driver.Error) chan *driver.Error { return c }

type fakeChannel struct {
	b *fakeBroker
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ driver.Table) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, ok := c.b.exchanges[name]; !ok {
		c.b.exchanges[name] = &fakeExchange{kind: kind}
	}
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ driver.Table) (driver.Queue, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if name == "" {
		name = getName("queue")
	}
	if _, ok := c.b.queues[name]; !ok {
		c.b.queues[name] = &fakeQueue{deliveries: make(chan driver.Delivery, 256)}
	}
	return driver.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ driver.Table) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	ex, ok := c.b.exchanges[exchange]
	if !ok {
		return errors.New("fake broker: unknown exchange " + exchange)
	}
	ex.bindings = append(ex.bindings, fakeBinding{queue: name, pattern: key})
	return nil
}

func (c *fakeChannel) Publish(exchange, key string, _, _ bool, msg driver.Publishing) error {
	c.b.mu.Lock()
	ex, ok := c.b.exchanges[exchange]
	if !ok {
		c.b.mu.Unlock()
		return errors.New("fake broker: unknown exchange " + exchange)
	}
	var targets []*fakeQueue
	for _, bd := range ex.bindings {
		if routeMatches(ex.kind, bd.pattern, key) {
			if q, ok := c.b.queues[bd.queue]; ok {
				targets = append(targets, q)
			}
		}
	}
	c.b.mu.Unlock()

	d := driver.Delivery{
		Acknowledger:    fakeAcknowledger{},
		Headers:         msg.Headers,
		ContentType:     msg.ContentType,
		ContentEncoding: msg.ContentEncoding,
		DeliveryMode:    msg.DeliveryMode,
		Priority:        msg.Priority,
		CorrelationId:   msg.CorrelationId,
		ReplyTo:         msg.ReplyTo,
		Expiration:      msg.Expiration,
		MessageId:       msg.MessageId,
		Timestamp:       msg.Timestamp,
		Type:            msg.Type,
		UserId:          msg.UserId,
		AppId:           msg.AppId,
		Exchange:        exchange,
		RoutingKey:      key,
		Body:            msg.Body,
	}
	for _, q := range targets {
		select {
		case q.deliveries <- d:
		default:
			// Fake queue is saturated; drop, mirroring the backpressure a
			// real overflowing queue would apply.
		}
	}
	return nil
}

func (c *fakeChannel) Consume(queue, _ string, _, _, _, _ bool, _ driver.Table) (<-chan driver.Delivery, error) {
	c.b.mu.Lock()
	q, ok := c.b.queues[queue]
	c.b.mu.Unlock()
	if !ok {
		return nil, errors.New("fake broker: unknown queue " + queue)
	}
	return q.deliveries, nil
}

func (c *fakeChannel) Cancel(string, bool) error { return nil }

func (c *fakeChannel) Qos(int, int, bool) error { return nil }

func (c *fakeChannel) Confirm(bool) error { return nil }

func (c *fakeChannel) NotifyClose(ch chan *driver.Error) chan *driver.Error { return ch }

func (c *fakeChannel) NotifyPublish(ch chan driver.Confirmation) chan driver.Confirmation { return ch }

func (c *fakeChannel) NotifyReturn(ch chan driver.Return) chan driver.Return { return ch }

func (c *fakeChannel) Close() error { return nil }

type fakeAcknowledger struct{}

func (fakeAcknowledger) Ack(uint64, bool) error       { return nil }
func (fakeAcknowledger) Nack(uint64, bool, bool) error { return nil }
func (fakeAcknowledger) Reject(uint64, bool) error    { return nil }

// routeMatches evaluates whether a message published with the given
// routing key would be delivered to a queue bound with the given
// pattern, for the given exchange kind.
func routeMatches(kind, pattern, key string) bool {
	switch kind {
	case "fanout":
		return true
	case "direct", "":
		return pattern == key
	default: // topic
		return topicMatch(pattern, key)
	}
}

func topicMatch(pattern, key string) bool {
	return matchParts(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchParts(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	switch pattern[0] {
	case "#":
		if matchParts(pattern[1:], key) {
			return true
		}
		if len(key) == 0 {
			return false
		}
		return matchParts(pattern, key[1:])
	case "*":
		if len(key) == 0 {
			return false
		}
		return matchParts(pattern[1:], key[1:])
	default:
		if len(key) == 0 || key[0] != pattern[0] {
			return false
		}
		return matchParts(pattern[1:], key[1:])
	}
}
