package rpc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.bryk.io/compute/broker"
	"go.bryk.io/compute/errors"
	"go.bryk.io/compute/reqcontext"
)

// envelopeProducer stamps every outgoing call/cast envelope with a
// unique message id and a publish timestamp, on top of the content type
// they're marshalled as.
var envelopeProducer = &broker.Producer{
	ContentType: "application/json",
	MessageType: "rpc.envelope",
	SetID:       true,
	SetTime:     true,
}

// Cast packs ctx into env and publishes it once on topic's control
// exchange through conn, with no reply handling. conn should be a
// connection dedicated to publishing (never also backing a Consumer).
func Cast(conn *broker.Connection, ctx reqcontext.RequestContext, controlExchange, topic string, env Envelope) error {
	pub, err := broker.TopicPublisher(conn, controlExchange)
	if err != nil {
		return err
	}
	defer func() { _ = pub.Close() }()

	body, err := json.Marshal(Pack(env, ctx))
	if err != nil {
		return err
	}
	return pub.UnsafePush(
		envelopeProducer.Message(body),
		broker.MessageOptions{Exchange: controlExchange, RoutingKey: topic},
	)
}

// FanoutCast packs ctx into env and publishes it on topic's fanout
// exchange through conn, with no reply handling.
func FanoutCast(conn *broker.Connection, ctx reqcontext.RequestContext, topic string, env Envelope) error {
	pub, err := broker.FanoutPublisher(conn, topic)
	if err != nil {
		return err
	}
	defer func() { _ = pub.Close() }()

	body, err := json.Marshal(Pack(env, ctx))
	if err != nil {
		return err
	}
	return pub.UnsafePush(
		envelopeProducer.Message(body),
		broker.MessageOptions{Exchange: topic + "_fanout", RoutingKey: topic},
	)
}

// Call sends env on topic's control exchange and blocks for exactly one
// reply matching a freshly generated reply id. A ctx deadline (when set)
// bounds the wait; context.Background() reproduces the source's original
// block-forever behavior. mgr supplies two fresh connections per call —
// one for the ephemeral direct reply consumer, one for the publish —
// since a single connection cannot back both a Consumer and a Publisher
// at once.
func Call(ctx context.Context, mgr *broker.Manager, rc reqcontext.RequestContext, controlExchange, topic string, env Envelope) (interface{}, error) {
	msgID := uuid.New().String()
	env.MsgID = msgID

	consumerConn, err := mgr.Instance(true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = consumerConn.Close() }()

	consumer, err := broker.DirectConsumer(consumerConn, msgID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = consumer.Close() }()

	deliveries, _, err := consumer.Subscribe(broker.SubscribeOptions{Queue: msgID, AutoAck: true})
	if err != nil {
		return nil, err
	}

	publishConn, err := mgr.Instance(true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = publishConn.Close() }()

	if err := Cast(publishConn, rc, controlExchange, topic, env); err != nil {
		return nil, err
	}

	select {
	case d, ok := <-deliveries:
		if !ok {
			return nil, errors.New("reply channel closed before a response arrived")
		}
		var reply Reply
		if err := json.Unmarshal(d.Body, &reply); err != nil {
			return nil, err
		}
		if reply.Failure != nil {
			return nil, &RemoteError{
				ExcType:   reply.Failure.ExcType,
				Value:     reply.Failure.Value,
				Traceback: reply.Failure.Traceback,
			}
		}
		return reply.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
