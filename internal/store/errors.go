package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCorruptFormat marks a stored line that is not "<weight>\t<path>".
	// Loading skips such lines instead of failing.
	ErrCorruptFormat = errors.New("corrupt store line")

	// ErrIO wraps failures reading, writing or renaming the data file.
	ErrIO = errors.New("store i/o")

	// ErrInvalidDecay is returned by Decay for a factor outside (0, 1)
	// or a threshold that is negative or not a number.
	ErrInvalidDecay = errors.New("invalid decay policy")

	// ErrInvalidPath marks a path the line format cannot hold: empty, or
	// containing a line break.
	ErrInvalidPath = errors.New("invalid path")
)

// CheckPath reports whether path can be stored and read back unchanged.
func CheckPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.ContainsAny(path, "\r\n") {
		return fmt.Errorf("%w: %q contains a line break", ErrInvalidPath, path)
	}
	return nil
}

// LineError describes one skipped line of a data file.
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *LineError) Unwrap() error {
	return ErrCorruptFormat
}
