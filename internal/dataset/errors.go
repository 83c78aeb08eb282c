package dataset

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoMatchingClass means none of the candidate names occur in the
	// racecars manifest. Selecting the class requires a configuration change.
	ErrNoMatchingClass = errors.New("no class matches the candidate names")

	// ErrMissingValDir means a source root has neither "val" nor "valid".
	ErrMissingValDir = errors.New("no 'val' or 'valid' directory found")

	// ErrDestinationNotEmpty means the merge target already holds files.
	ErrDestinationNotEmpty = errors.New("destination is not empty")

	// ErrTagCollision means two source files would be written to the same
	// merged path.
	ErrTagCollision = errors.New("dataset tags produce colliding file names")
)

// ConfigError is a fatal configuration problem detected before any file is
// written. Input names the offending path or class list.
type ConfigError struct {
	Err   error
	Input string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v: %s", e.Err, e.Input)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MalformedLabelError reports a label line whose class field is not an
// integer.
type MalformedLabelError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedLabelError) Error() string {
	return fmt.Sprintf("malformed label %s:%d: %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *MalformedLabelError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
