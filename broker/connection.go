package broker

import "sync"

// Connection wraps a session opened against either a live broker or the
// in-process "fake_rabbit" backend. It is the handle Consumer and
// Publisher instances are built from.
type Connection struct {
	s *session
}

// NewConnection opens a new broker connection. Construction blocks until
// the underlying session reports a first successful connect, or the
// connection is declared fatal under WithRetry's bound (see session.init
// / session.eventLoop).
func NewConnection(addr string, options ...Option) (*Connection, error) {
	s, err := open(addr, options...)
	if err != nil {
		return nil, err
	}
	select {
	case <-s.firstReady:
		return &Connection{s: s}, nil
	case err := <-s.dead:
		return nil, err
	}
}

// Close gracefully tears down the underlying session.
func (c *Connection) Close() error {
	return c.s.close()
}

// Manager owns a broker address and a base set of options, and hands out
// Connection instances to the consumers and publishers built on top of
// it. It replaces the source's process-wide connection singleton
// (Connection.instance/recreate) with an explicit, per-service owned
// instance threaded to whoever needs a connection.
type Manager struct {
	addr string
	opts []Option
	mu   sync.Mutex
	memo *Connection
}

// NewManager returns a manager for the given broker address and base
// options, applied to every connection it produces.
func NewManager(addr string, opts ...Option) *Manager {
	return &Manager{addr: addr, opts: opts}
}

// Instance returns a broker connection. When fresh is false and a prior
// connection was already memoized, that same instance is returned;
// fresh always opens (and memoizes) a brand-new one.
func (m *Manager) Instance(fresh bool) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !fresh && m.memo != nil {
		return m.memo, nil
	}
	conn, err := NewConnection(m.addr, m.opts...)
	if err != nil {
		return nil, err
	}
	m.memo = conn
	return conn, nil
}

// Recreate discards any memoized connection and opens a new one,
// mirroring the source's Connection.recreate().
func (m *Manager) Recreate() (*Connection, error) {
	m.mu.Lock()
	prev := m.memo
	m.memo = nil
	m.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return m.Instance(true)
}
