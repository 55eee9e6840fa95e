package models

import (
	"errors"
	"fmt"
)

// Terminal error kinds for a pipeline invocation. None of these are
// retried: each signals a missing or malformed artifact, or a logically
// empty computation. Row-level parse failures are not errors at all; the
// loader drops those rows and reports the counts.

// ErrFileNotFound wraps a missing input file.
var ErrFileNotFound = errors.New("input file not found")

// MissingColumnError reports a required column absent from the input table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found", e.Column)
}

// InvalidPriceError reports a non-positive price that survived parsing.
// This is a hard failure rather than a drop: a successfully parsed price
// at or below zero signals a data-integrity problem, not a formatting one.
type InvalidPriceError struct {
	Date  string
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("non-positive price %v at %s", e.Price, e.Date)
}

// EmptySeriesError reports that no valid rows remained after dropping
// unparseable ones.
type EmptySeriesError struct {
	File    string
	Dropped int
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("no valid rows in %s (%d dropped)", e.File, e.Dropped)
}

// InsufficientDataError reports a return series too short to model.
type InsufficientDataError struct {
	N   int
	Min int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("need at least %d observations, got %d", e.Min, e.N)
}

// ErrEmptyPosterior is returned when a report is requested from a trace
// with no tau samples. There is no meaningful point estimate without
// samples, so this is a hard precondition, not a defaulted value.
var ErrEmptyPosterior = errors.New("posterior trace has no tau samples")
