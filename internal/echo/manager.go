// Package echo provides a minimal reference handler used to exercise the
// rpc dispatch path end to end: echo returns its input verbatim, context
// surfaces the caller's reqcontext.RequestContext, and fail always
// raises, letting tests observe the RemoteError path.
package echo

import (
	"fmt"

	"go.bryk.io/compute/reqcontext"
	"go.bryk.io/compute/rpc"
)

// Manager is the handler object a Service binds to an rpc.Registry.
type Manager struct{}

// Echo returns whatever value was sent in.
func (m *Manager) Echo(_ reqcontext.RequestContext, value interface{}) (interface{}, error) {
	return value, nil
}

// Context returns the map form of the caller's RequestContext.
func (m *Manager) Context(ctx reqcontext.RequestContext, _ interface{}) (interface{}, error) {
	return ctx.ToMap(), nil
}

// Fail always raises an error carrying value, exercising the
// RemoteError path.
func (m *Manager) Fail(_ reqcontext.RequestContext, value interface{}) (interface{}, error) {
	return nil, fmt.Errorf("%v", value)
}

// Register binds m's methods onto reg under their lowercase names,
// matching the string method-name lookup the rpc package dispatches by.
func (m *Manager) Register(reg *rpc.Registry) {
	reg.Register("echo", func(ctx reqcontext.RequestContext, args rpc.Args) (interface{}, error) {
		return m.Echo(ctx, args["value"])
	})
	reg.Register("context", func(ctx reqcontext.RequestContext, args rpc.Args) (interface{}, error) {
		return m.Context(ctx, args["value"])
	})
	reg.Register("fail", func(ctx reqcontext.RequestContext, args rpc.Args) (interface{}, error) {
		return m.Fail(ctx, args["value"])
	})
}
