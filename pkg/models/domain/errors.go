package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoProcessSelected = errors.New("no process selected")
	ErrInvalidProcess    = errors.New("process id must be non-empty and must not contain a comma")
	ErrMissingBound      = errors.New("custom range requires both start and end")
	ErrInvalidBound      = errors.New("range bound is not a valid timestamp")
	ErrInvalidInterval   = errors.New("range start must be before end")
	ErrUnknownPeriod     = errors.New("unknown period type")
	ErrEmptyCollection   = errors.New("report collection is empty")
	ErrUnknownFormat     = errors.New("unknown export format")
	ErrSuperseded        = errors.New("report generation superseded by a newer one")
	ErrNotFound          = errors.New("report not found")
)

// ValidationError is raised before any network call is attempted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a rejected fetch or a non-success backend response.
type NetworkError struct {
	Op      string
	Process string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Process != "" {
		return fmt.Sprintf("%s for process %s: %v", e.Op, e.Process, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PartialSectionError is a supplemental fetch failure after a successful base report.
type PartialSectionError struct {
	Process string
	Section Section
	Err     error
}

func (e *PartialSectionError) Error() string {
	return fmt.Sprintf("section %s unavailable for process %s: %v", e.Section, e.Process, e.Err)
}

func (e *PartialSectionError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}
