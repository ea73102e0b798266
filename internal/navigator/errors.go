package navigator

import "errors"

// Errors
var (
	// ErrEmptyInput returned by an action on a text option means "back":
	// the state that read the input is popped.
	ErrEmptyInput   = errors.New("navigator: empty input")
	ErrOutOfRange   = errors.New("navigator: selection out of range")
	ErrInvalidInput = errors.New("navigator: invalid input")
)

// FatalError marks an action error that must end the session.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "navigator: fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so that Run stops and returns it. Fatal(nil) is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
