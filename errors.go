package clob

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel error kinds of the submit/cancel/modify/query surface. Argument
// validation rejects synchronously before an event is enqueued. ErrNotFound
// marks a cancel/modify of an unknown, already-filled, or already-cancelled
// order id; it is logged by the Engine worker and never returned to the
// caller, whose Cancel/Modify call reports false instead.
var (
	ErrInvalidArgs = errors.New("clob: invalid arguments")
	ErrNotFound    = errors.New("clob: order not found")
	ErrShutdown    = errors.New("clob: engine is shut down")
	ErrQueueFull   = errors.New("clob: event queue is full")
)

// wrapf attaches a stack trace and context to a sentinel error at the
// Engine boundary, in the style github.com/pkg/errors is used for elsewhere
// in the example pack: callers inspect the result with errors.Is against
// the sentinels above, while logs get the stack trace.
func wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}
