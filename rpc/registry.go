package rpc

import (
	"sync"

	"go.bryk.io/compute/reqcontext"
)

// HandlerFunc handles a single RPC method invocation and returns either
// a JSON-marshalable result or an error to be reported back as a
// RemoteError.
type HandlerFunc func(ctx reqcontext.RequestContext, args Args) (interface{}, error)

// Registry maps method names to the handler closures an AdapterConsumer
// dispatches to, replacing the source's dynamic attribute lookup on a
// proxy object with an explicit table populated at service start.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]HandlerFunc{}}
}

// Register associates method with fn, replacing any existing handler
// registered under the same name.
func (r *Registry) Register(method string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[method] = fn
}

// Lookup returns the handler registered for method, if any.
func (r *Registry) Lookup(method string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[method]
	return fn, ok
}
