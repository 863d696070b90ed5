package rpc

import (
	"fmt"
	"reflect"
	"strings"

	"go.bryk.io/compute/errors"
)

// Reply is the wire form of a handler's outcome, published back to the
// caller's direct reply queue when the inbound envelope carried a MsgID.
type Reply struct {
	Result  interface{} `json:"result"`
	Failure *Failure    `json:"failure,omitempty"`
}

// Failure is the JSON rendering of a handler exception: the remote type
// name, its stringified value, and a formatted traceback, joined so a
// caller's log contains the full remote picture.
type Failure struct {
	ExcType   string   `json:"exc_type"`
	Value     string   `json:"value"`
	Traceback []string `json:"traceback"`
}

// RemoteError is what a failed call returns to its caller: a local
// stand-in for whatever error a remote handler raised.
type RemoteError struct {
	ExcType   string
	Value     string
	Traceback []string
}

// Error renders the remote type, value and traceback joined together so
// that printing the error alone surfaces the full remote picture.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s\n%s", e.ExcType, e.Value, strings.Join(e.Traceback, "\n"))
}

// newFailure captures a handler error's type name, message and (when
// available) stack trace into the wire Failure shape.
func newFailure(err error) *Failure {
	f := &Failure{
		ExcType: excTypeName(err),
		Value:   err.Error(),
	}
	wrapped := errors.New(err)
	var hs errors.HasStack
	if errors.As(wrapped, &hs) {
		for _, frame := range hs.StackTrace() {
			f.Traceback = append(f.Traceback, fmt.Sprintf("%s:%d %s", frame.File, frame.LineNumber, frame.Function))
		}
	}
	return f
}

// excTypeName returns a Go analogue of Python's exception class name: the
// dynamic type of err, stripped of its pointer marker.
func excTypeName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return "error"
	}
	name := t.String()
	return strings.TrimPrefix(name, "*")
}
