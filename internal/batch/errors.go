package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrOddColumns marks a measured record whose columns do not pair into x/y repetitions.
	ErrOddColumns = errors.New("number of data columns is not a multiple of 2")
	// ErrRestColumns marks a rest record that does not hold exactly one shape.
	ErrRestColumns = errors.New("rest record must hold exactly one shape (two columns)")
	// ErrDuplicateRest marks a subject with more than one rest record.
	ErrDuplicateRest = errors.New("subject has more than one rest record")
	// ErrTooFewPoints marks a record with too few rows to report three harmonics.
	ErrTooFewPoints = errors.New("record has too few contour points")
	// ErrPointCount marks a measured record whose point count differs from the rest shape.
	ErrPointCount = errors.New("record point count differs from rest shape")
)

// FormatError reports a malformed input. It aborts processing of the subject
// it belongs to.
type FormatError struct {
	Subject string
	Source  string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("subject %s: %v", e.Subject, e.Err)
	}
	return fmt.Sprintf("subject %s: %s: %v", e.Subject, e.Source, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the error for callers that map failures to outcomes.
func (e *FormatError) ErrorKind() string {
	return "format"
}

func formatErr(subject, source string, err error) *FormatError {
	return &FormatError{Subject: subject, Source: source, Err: err}
}
