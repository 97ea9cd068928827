package live

import "fmt"

// ValidationError rejects bad input before any backend call is made. It
// never reaches the network layer and is handled at the point of input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err was rejected pre-network.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// NetworkError wraps a backend failure: the input was fine, the write or
// read against the store did not go through. Any optimistic state has
// already been rolled back by the time one of these is returned.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func networkError(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// IsNetworkError reports whether err is a wrapped backend failure.
func IsNetworkError(err error) bool {
	_, ok := err.(*NetworkError)
	return ok
}
