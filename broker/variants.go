package broker

import "github.com/google/uuid"

// variants.go fixes the exchange/queue/routing-key/durability policy for
// each of the three consumer and publisher shapes atop the generic
// Consumer/Publisher primitives, matching the three delivery modes a
// Service relies on: a shared topic, a per-host topic and a fanout.

// TopicConsumer subscribes to the given topic on the control exchange:
// queue and routing key both equal topic, non-durable, non-exclusive.
// Used both for the shared topic queue and the per-host addressed queue
// (callers pass "<topic>.<host>" as topic for the latter).
func TopicConsumer(conn *Connection, controlExchange, topic string) (*Consumer, error) {
	c, err := NewConsumer(conn)
	if err != nil {
		return nil, err
	}
	if err := c.AddExchange(Exchange{Name: controlExchange, Kind: "topic"}); err != nil {
		return nil, err
	}
	if _, err := c.AddQueue(Queue{Name: topic}); err != nil {
		return nil, err
	}
	if err := c.AddBinding(Binding{Exchange: controlExchange, Queue: topic, RoutingKey: []string{topic}}); err != nil {
		return nil, err
	}
	return c, nil
}

// FanoutConsumer subscribes to a private, auto-generated queue on
// "<topic>_fanout": every subscriber of the same topic gets its own copy
// of every message, since each consumer declares its own queue.
func FanoutConsumer(conn *Connection, topic string) (*Consumer, error) {
	c, err := NewConsumer(conn)
	if err != nil {
		return nil, err
	}
	exchange := topic + "_fanout"
	queue := exchange + "_" + uuid.New().String()
	if err := c.AddExchange(Exchange{Name: exchange, Kind: "fanout"}); err != nil {
		return nil, err
	}
	if _, err := c.AddQueue(Queue{Name: queue}); err != nil {
		return nil, err
	}
	if err := c.AddBinding(Binding{Exchange: exchange, Queue: queue, RoutingKey: []string{topic}}); err != nil {
		return nil, err
	}
	return c, nil
}

// DirectConsumer subscribes to an exclusive, auto-deleted queue keyed by
// msgID: exchange, queue and routing key are all msgID. Used for a
// single call's reply.
func DirectConsumer(conn *Connection, msgID string) (*Consumer, error) {
	c, err := NewConsumer(conn)
	if err != nil {
		return nil, err
	}
	if err := c.AddExchange(Exchange{Name: msgID, Kind: "direct"}); err != nil {
		return nil, err
	}
	if _, err := c.AddQueue(Queue{Name: msgID, AutoDelete: true, Exclusive: true}); err != nil {
		return nil, err
	}
	if err := c.AddBinding(Binding{Exchange: msgID, Queue: msgID, RoutingKey: []string{msgID}}); err != nil {
		return nil, err
	}
	return c, nil
}

// TopicPublisher returns a publisher that routes by topic on the control
// exchange.
func TopicPublisher(conn *Connection, controlExchange string) (*Publisher, error) {
	p, err := NewPublisher(conn)
	if err != nil {
		return nil, err
	}
	if err := p.AddExchange(Exchange{Name: controlExchange, Kind: "topic"}); err != nil {
		return nil, err
	}
	return p, nil
}

// FanoutPublisher returns a publisher that routes by topic on
// "<topic>_fanout".
func FanoutPublisher(conn *Connection, topic string) (*Publisher, error) {
	p, err := NewPublisher(conn)
	if err != nil {
		return nil, err
	}
	if err := p.AddExchange(Exchange{Name: topic + "_fanout", Kind: "fanout"}); err != nil {
		return nil, err
	}
	return p, nil
}

// DirectPublisher returns a publisher that routes by msgID.
func DirectPublisher(conn *Connection, msgID string) (*Publisher, error) {
	p, err := NewPublisher(conn)
	if err != nil {
		return nil, err
	}
	if err := p.AddExchange(Exchange{Name: msgID, Kind: "direct"}); err != nil {
		return nil, err
	}
	return p, nil
}
