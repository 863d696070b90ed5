/*
Package rpc implements the three verbs a compute-orchestration Service
exposes to its callers — call, cast and fanout_cast — on top of the
broker package's topic, fanout and direct primitives.

An envelope is a flat JSON object: a method name, a mapping of
arguments, an optional reply id, and zero or more "_context_"-prefixed
fields carrying the caller's reqcontext.RequestContext. AdapterConsumer
decodes envelopes off a broker.Consumer, looks the method up in a
Registry, dispatches on a bounded worker pool, and — when the envelope
carried a reply id — publishes a Reply or RemoteError back to the
caller:

	registry := rpc.NewRegistry()
	registry.Register("echo", func(ctx reqcontext.RequestContext, args rpc.Args) (interface{}, error) {
		return args["value"], nil
	})
	adapter := rpc.NewAdapterConsumer(consumer, replyConn, registry)
	_ = adapter.Start("workers")

	result, err := rpc.Call(context.Background(), mgr, rc, "compute", "workers", rpc.Envelope{
		Method: "echo",
		Args:   rpc.Args{"value": 42},
	})
*/
package rpc
