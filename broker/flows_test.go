package broker

import (
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTopicRouting(t *testing.T) {
	assert := tdd.New(t)
	addr := "fake://" + getName("topic-test")

	connConsumer, err := NewConnection(addr, WithFakeBackend(), WithName("consumer-conn"))
	assert.Nil(err, "open consumer connection")
	consumer, err := TopicConsumer(connConsumer, "compute", "workers")
	assert.Nil(err, "open topic consumer")
	deliveries, _, err := consumer.Subscribe(SubscribeOptions{Queue: "workers", AutoAck: true})
	assert.Nil(err, "subscribe")

	connPub, err := NewConnection(addr, WithFakeBackend(), WithName("publisher-conn"))
	assert.Nil(err, "open publisher connection")
	publisher, err := TopicPublisher(connPub, "compute")
	assert.Nil(err, "open topic publisher")

	err = publisher.UnsafePush(Message{Body: []byte("hello")}, MessageOptions{
		Exchange:   "compute",
		RoutingKey: "workers",
	})
	assert.Nil(err, "publish")

	select {
	case d := <-deliveries:
		assert.Equal("hello", string(d.Body))
	case <-time.After(time.Second):
		assert.Fail("timed out waiting for delivery")
	}

	assert.Nil(consumer.Close())
	assert.Nil(publisher.Close())
}

func TestFanoutDeliversToEachSubscriber(t *testing.T) {
	assert := tdd.New(t)
	addr := "fake://" + getName("fanout-test")
	const topic = "broadcast"

	var subs []*Consumer
	var chans []<-chan Delivery
	for i := 0; i < 3; i++ {
		conn, err := NewConnection(addr, WithFakeBackend())
		assert.Nil(err, "open connection")
		c, err := FanoutConsumer(conn, topic)
		assert.Nil(err, "open fanout consumer")
		dc, _, err := c.Subscribe(SubscribeOptions{Queue: c.QueueName(), AutoAck: true})
		assert.Nil(err, "subscribe")
		subs = append(subs, c)
		chans = append(chans, dc)
	}

	pubConn, err := NewConnection(addr, WithFakeBackend())
	assert.Nil(err, "open publisher connection")
	pub, err := FanoutPublisher(pubConn, topic)
	assert.Nil(err, "open fanout publisher")
	assert.Nil(pub.UnsafePush(Message{Body: []byte("broadcast")}, MessageOptions{
		Exchange:   topic + "_fanout",
		RoutingKey: topic,
	}))

	for _, ch := range chans {
		select {
		case d := <-ch:
			assert.Equal("broadcast", string(d.Body))
		case <-time.After(time.Second):
			assert.Fail("timed out waiting for a fanout delivery")
		}
	}

	for _, c := range subs {
		assert.Nil(c.Close())
	}
	assert.Nil(pub.Close())
}

func TestDirectReplyRouting(t *testing.T) {
	assert := tdd.New(t)
	addr := "fake://" + getName("direct-test")
	msgID := getName("reply")

	conn, err := NewConnection(addr, WithFakeBackend())
	assert.Nil(err, "open connection")
	consumer, err := DirectConsumer(conn, msgID)
	assert.Nil(err, "open direct consumer")
	deliveries, _, err := consumer.Subscribe(SubscribeOptions{Queue: msgID, AutoAck: true})
	assert.Nil(err, "subscribe")

	pubConn, err := NewConnection(addr, WithFakeBackend())
	assert.Nil(err, "open publisher connection")
	pub, err := DirectPublisher(pubConn, msgID)
	assert.Nil(err, "open direct publisher")
	assert.Nil(pub.UnsafePush(Message{Body: []byte("reply")}, MessageOptions{
		Exchange:   msgID,
		RoutingKey: msgID,
	}))

	select {
	case d := <-deliveries:
		assert.Equal("reply", string(d.Body))
	case <-time.After(time.Second):
		assert.Fail("timed out waiting for reply delivery")
	}

	assert.Nil(consumer.Close())
	assert.Nil(pub.Close())
}

func TestManagerMemoizesAndRecreates(t *testing.T) {
	assert := tdd.New(t)
	addr := "fake://" + getName("manager-test")
	mgr := NewManager(addr, WithFakeBackend())

	first, err := mgr.Instance(false)
	assert.Nil(err, "first instance")
	again, err := mgr.Instance(false)
	assert.Nil(err, "memoized instance")
	assert.True(first == again, "Instance(false) should return the memoized connection")

	recreated, err := mgr.Recreate()
	assert.Nil(err, "recreate")
	assert.False(first == recreated, "Recreate should hand out a fresh connection")

	assert.Nil(recreated.Close())
}

func TestRetryExhaustionInvokesFatalHandler(t *testing.T) {
	assert := tdd.New(t)
	fatalCh := make(chan error, 1)

	// A real address no broker is listening on: every connect attempt
	// fails and the bounded retry count must be exhausted quickly.
	// WithFatalHandler replaces the default os.Exit(1) behavior so the
	// test process survives exhaustion.
	conn, err := NewConnection("amqp://127.0.0.1:1",
		WithRetry(10*time.Millisecond, 2),
		WithFatalHandler(func(err error) { fatalCh <- err }))
	assert.Nil(conn)
	assert.NotNil(err, "NewConnection should report the exhaustion error")

	select {
	case err := <-fatalCh:
		assert.NotNil(err)
	case <-time.After(2 * time.Second):
		assert.Fail("fatal handler was never invoked")
	}
}
