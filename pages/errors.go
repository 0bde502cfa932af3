package pages

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound means a bounded presence wait exhausted its window.
	ErrElementNotFound = errors.New("element not found")
	// ErrPageLoadTimeout means the page did not reach the load state in time.
	ErrPageLoadTimeout = errors.New("page load timeout")
	// ErrWaitTimeout means an explicit wait condition never held.
	ErrWaitTimeout = errors.New("wait timeout")
)

// AssertionError reports a mismatch between an expected and an observed
// value. Its message carries both values verbatim.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

func assertionFailure(format string, args ...interface{}) *AssertionError {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}
