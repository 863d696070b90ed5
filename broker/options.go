package broker

import (
	"crypto/tls"
	"time"

	xlog "go.bryk.io/compute/log"
)

// Option instances adjust the settings of a new session. Applied when
// opening a consumer or publisher connection.
type Option func(*session) error

// WithLogger sets the logger instance used to report the internal
// activity of a session. Discarded by default.
func WithLogger(ll xlog.Logger) Option {
	return func(s *session) error {
		s.log = ll
		return nil
	}
}

// WithName sets an identifier for the session instance, used to build
// generated queue/consumer names and reported in log entries. If not
// provided a random name is generated.
func WithName(name string) Option {
	return func(s *session) error {
		s.name = name
		return nil
	}
}

// WithTLS enables a secure connection to the broker server using the
// provided TLS settings.
func WithTLS(conf *tls.Config) Option {
	return func(s *session) error {
		s.tlsConf = conf
		return nil
	}
}

// WithPrefetch adjusts the number of unacknowledged messages (count) and
// bytes (size) a session is allowed to have in flight at any given time.
func WithPrefetch(count, size int) Option {
	return func(s *session) error {
		s.prefetchCount = count
		s.prefetchSize = size
		return nil
	}
}

// WithTopology declares the broker topology (exchanges, queues, bindings)
// expected to exist; missing entities are created when the session
// connects.
func WithTopology(t Topology) Option {
	return func(s *session) error {
		s.topology = t
		return nil
	}
}

// WithFakeBackend selects the in-process broker substitute instead of
// dialing a real AMQP091 server. All sessions sharing the same address
// observe the same fake exchanges, queues and bindings.
func WithFakeBackend() Option {
	return func(s *session) error {
		s.dial = dialFake
		return nil
	}
}

// WithRetry bounds how many times a session will attempt its initial
// connection before giving up: interval is the fixed delay between
// attempts and max is the attempt ceiling (0 means retry forever, the
// default). Once a session has connected at least once, reconnection on
// a later, unexpected drop always retries forever regardless of this
// setting.
func WithRetry(interval time.Duration, max int) Option {
	return func(s *session) error {
		s.retryInterval = interval
		s.maxRetries = max
		return nil
	}
}

// WithFatalHandler overrides what a session does when its initial
// connection attempts are exhausted (see WithRetry). The default handler
// logs and calls os.Exit(1), matching the source's "give up and die"
// behavior for a transport that never came up.
func WithFatalHandler(fn func(error)) Option {
	return func(s *session) error {
		s.fatal = fn
		return nil
	}
}
