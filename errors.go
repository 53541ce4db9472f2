package jpegdoc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRange means a value cannot be stored in its on-disk field. It is
	// a programming error and is reported whatever the strictness.
	ErrRange = errors.New("jpegdoc: value does not fit its storage width")
	// ErrFormat means the data breaks a rule of the current encoding
	// profile or of the JPEG grammar.
	ErrFormat = errors.New("jpegdoc: format violation")
	// ErrTruncated means the input ended before a record was complete.
	ErrTruncated = errors.New("jpegdoc: truncated input")
	// ErrLimitExceeded means a parser tried to read past the end of the
	// segment it was given.
	ErrLimitExceeded = errors.New("jpegdoc: read past segment limit")
	ErrNoMark         = errors.New("jpegdoc: reset without mark")
	ErrSegmentTooLong = errors.New("jpegdoc: segment parameters too long")
	ErrIndex          = errors.New("jpegdoc: element index out of range")
	ErrNoElementType  = errors.New("jpegdoc: no element type for marker")
)

// Problem is one violation found while checking an element or a sequence
// of elements.
type Problem struct {
	Element string // Name of the offending element, empty for sequence-level problems
	Message string
}

func (p Problem) String() string {
	if p.Element == "" {
		return p.Message
	}
	return p.Element + ": " + p.Message
}

func problemf(element, format string, args ...any) Problem {
	return Problem{Element: element, Message: fmt.Sprintf(format, args...)}
}

// RangeError reports a value that does not fit the width of its field.
type RangeError struct {
	Field string
	Value int
	Width Width
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("jpegdoc: %s value %d does not fit in a %s", e.Field, e.Value, e.Width)
}

func (e *RangeError) Unwrap() error {
	return ErrRange
}

// FormatError wraps a Problem that is fatal under the current strictness.
type FormatError struct {
	Problem Problem
	Err     error // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jpegdoc: %s: %v", e.Problem, e.Err)
	}
	return "jpegdoc: " + e.Problem.String()
}

// Unwrap lets errors.Is match both ErrFormat and the underlying error.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// errMismatch marks a candidate type that doesn't apply to a segment, as
// opposed to one that applies but finds the segment broken.
var errMismatch = errors.New("jpegdoc: segment identifier mismatch")

func mismatch(element string, id []byte) *FormatError {
	return &FormatError{Problem: problemf(element, "identifier isn't %q", id), Err: errMismatch}
}

func formatErrorf(element, format string, args ...any) *FormatError {
	return &FormatError{Problem: problemf(element, format, args...)}
}

// ModeError reports a rejected mode change. Nothing was modified.
type ModeError struct {
	Mode     Mode
	Problems []Problem
}

func (e *ModeError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("jpegdoc: mode %s rejected: %s", e.Mode, strings.Join(msgs, "; "))
}

func (e *ModeError) Unwrap() error {
	return ErrFormat
}
