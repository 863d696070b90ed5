/*
Package api provides the utilities necessary to instrument an application or library.

The instrumentation of a piece of code is independent of setting up any specific
monitoring implementation when executing it. To setup a monitoring pipeline/stack
at runtime use the `sdk` package.
*/
package api
