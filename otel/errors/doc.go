/*
Package errors provide a vendor-agnostic error reporting interface.

Specific implementations will provide tools to work with 3rd party services
and providers.
*/
package errors
