// Package errors provides structured error reporting for the segue engine.
//
// Nothing in this package is fatal: the engine contains failures locally and
// reports them here so embedders can surface them. The default handler logs
// to stderr; embedders install their own with [SetHandler], and components
// that need an isolated sink (tests, multiple coordinators) accept an
// [ErrorHandler] directly instead of going through the global.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of a reported error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates invalid transition configuration, such as a
	// NaN or negative explicit duration. Config errors are warnings: the
	// engine proceeds as if the offending value were absent.
	KindConfig
	// KindHook indicates a panic recovered from a user transition hook
	// invoked after a frame deferral. The phase still completes.
	KindHook
	// KindPanic indicates a panic recovered outside user hooks, for
	// example in a frame callback.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindHook:
		return "hook"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// SegueError represents a structured error in the segue engine.
type SegueError struct {
	// Op is the operation that failed (e.g. "segue.resolveSpec").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Element describes the element involved, if any.
	Element string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *SegueError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("%s [%s] element=%s: %v", e.Op, e.Kind, e.Element, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *SegueError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g. "engine.frame").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the segue engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *SegueError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
