package utils

import (
	"fmt"
	"runtime/debug"
)

// PanicError is a panic recovered into an error. Err is set when the panic
// value was itself an error, so errors.Is and errors.As see through it.
type PanicError struct {
	Value      any
	Err        error
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	return e.Err
}

func newPanicError(r any) *PanicError {
	e := &PanicError{Value: r, StackTrace: string(debug.Stack())}
	if err, ok := r.(error); ok {
		e.Err = err
	}
	return e
}

// RecoverAsError stores a recovered panic in *errPtr. Defer it first in a
// function with a named error result:
//
//	func add(g *Graph, s Statement) (err error) {
//	    defer RecoverAsError(&err)
//	    ...
//	}
func RecoverAsError(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = newPanicError(r)
	}
}

// RecoverWithCallback passes a recovered panic to callback. Use it where
// there is no error result, such as in a worker goroutine.
func RecoverWithCallback(callback func(error)) {
	if r := recover(); r != nil && callback != nil {
		callback(newPanicError(r))
	}
}
