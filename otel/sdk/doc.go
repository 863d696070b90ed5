/*
Package sdk provides the utilities necessary to setup a monitoring implementation at runtime.

Setting up a specific monitoring pipeline/stack is independent of instrumenting an
application or library. For instrumentation utilities use the `api` package.
*/
package sdk
