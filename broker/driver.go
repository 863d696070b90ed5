package broker

import (
	"crypto/tls"

	driver "github.com/rabbitmq/amqp091-go"
)

// channelDriver abstracts the subset of *amqp091.Channel operations a
// session needs. It exists so the in-process "fake_rabbit" backend
// (see memory.go) can stand in for a live broker channel without the
// rest of the package noticing the difference.
type channelDriver interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args driver.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args driver.Table) (driver.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args driver.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg driver.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args driver.Table) (<-chan driver.Delivery, error)
	Cancel(consumer string, noWait bool) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Confirm(noWait bool) error
	NotifyClose(c chan *driver.Error) chan *driver.Error
	NotifyPublish(c chan driver.Confirmation) chan driver.Confirmation
	NotifyReturn(c chan driver.Return) chan driver.Return
	Close() error
}

// connDriver abstracts the subset of *amqp091.Connection operations a
// session needs, so the construction-time backend selection (real broker
// vs in-process) only happens once, in dial().
type connDriver interface {
	Channel() (channelDriver, error)
	Close() error
	IsClosed() bool
	NotifyClose(c chan *driver.Error) chan *driver.Error
}

// realConn adapts *amqp091.Connection to connDriver; the concrete type
// can't satisfy the interface directly since Channel() returns a
// concrete *amqp091.Channel rather than the channelDriver interface.
type realConn struct {
	c *driver.Connection
}

func dialReal(addr string, tlsConf *tls.Config) (connDriver, error) {
	c, err := driver.DialTLS(addr, tlsConf)
	if err != nil {
		return nil, err
	}
	return realConn{c: c}, nil
}

func (r realConn) Channel() (channelDriver, error) {
	ch, err := r.c.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r realConn) Close() error {
	return r.c.Close()
}

func (r realConn) IsClosed() bool {
	return r.c.IsClosed()
}

func (r realConn) NotifyClose(c chan *driver.Error) chan *driver.Error {
	return r.c.NotifyClose(c)
}
