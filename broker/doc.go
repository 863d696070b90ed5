/*
Package broker provides an AMQP091-based transport supporting the three
delivery modes a compute-orchestration Service relies on: a shared topic,
a per-host addressed topic, and a broadcast fanout.

The base design principles follow the AMQP model: messages are published
to exchanges, which route copies to queues using rules called bindings,
and the broker delivers messages to consumers subscribed to those queues.

A Connection wraps an underlying session with a broker endpoint (real or,
when built WithFakeBackend, an in-process substitute) with automatic
reconnection on unexpected drops. Consumer and Publisher instances are
built on top of a Connection; variants.go fixes the exchange/queue/
routing-key policy each of Topic, Fanout and Direct needs:

	conn, _ := broker.NewConnection(addr, broker.WithRetry(3*time.Second, 5))
	consumer, _ := broker.TopicConsumer(conn, "compute", "workers")
	deliveries, id, _ := consumer.Subscribe(broker.SubscribeOptions{Queue: "workers"})
	for d := range deliveries {
		_ = d.Ack(false)
	}
	_ = consumer.CloseSubscription(id)

Manager owns a broker address and a base option set, handing out fresh or
memoized Connection instances to whoever needs one — the Go equivalent of
recreating a dropped connection on demand.
*/
package broker
