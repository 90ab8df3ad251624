package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// InputKind names the file a MissingInputError refers to.
type InputKind string

const (
	InputTips    InputKind = "tips"
	InputResults InputKind = "results"
)

// MissingInputError is returned when a day's tips or results file is absent.
// It is fatal for that date only.
type MissingInputError struct {
	Kind  InputKind
	Date  time.Time
	Path  string
	Cause error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s input for %s: %s", e.Kind, e.Date.Format(DateLayout), e.Path)
}

func (e *MissingInputError) Unwrap() error {
	return e.Cause
}

// ParseError describes a single malformed record that was skipped.
type ParseError struct {
	Source string
	Line   int
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s line %d: %v", e.Source, e.Line, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewMissingInputError creates a new missing input error
func NewMissingInputError(kind InputKind, date time.Time, path string, cause error) *MissingInputError {
	return &MissingInputError{
		Kind:  kind,
		Date:  date,
		Path:  path,
		Cause: cause,
	}
}

// NewParseError creates a new parse error
func NewParseError(source string, line int, cause error) *ParseError {
	return &ParseError{
		Source: source,
		Line:   line,
		Cause:  cause,
	}
}

// IsMissingInput reports whether err is, or wraps, a MissingInputError.
func IsMissingInput(err error) bool {
	var target *MissingInputError
	return errors.As(err, &target)
}
