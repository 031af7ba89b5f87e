package testing

import "github.com/go-drift/segue/pkg/errors"

// RecordingHandler is an [errors.ErrorHandler] that captures everything
// reported to it, so tests can assert on error flow instead of stderr.
type RecordingHandler struct {
	Errors []*errors.SegueError
	Panics []*errors.PanicError
}

var _ errors.ErrorHandler = (*RecordingHandler)(nil)

// HandleError records err.
func (h *RecordingHandler) HandleError(err *errors.SegueError) {
	h.Errors = append(h.Errors, err)
}

// HandlePanic records err.
func (h *RecordingHandler) HandlePanic(err *errors.PanicError) {
	h.Panics = append(h.Panics, err)
}

// ErrorsOfKind returns the recorded errors with the given kind.
func (h *RecordingHandler) ErrorsOfKind(kind errors.ErrorKind) []*errors.SegueError {
	var out []*errors.SegueError
	for _, err := range h.Errors {
		if err.Kind == kind {
			out = append(out, err)
		}
	}
	return out
}

// Reset discards everything recorded so far.
func (h *RecordingHandler) Reset() {
	h.Errors = nil
	h.Panics = nil
}
