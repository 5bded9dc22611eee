package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDivisionUndefined: a ratio denominator is zero.
	ErrDivisionUndefined = errors.New("division undefined")
	// ErrInsufficientHistory: a store lacks the required number of monthly observations.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrZeroBaseline: the control store's pre-trial sum is zero.
	ErrZeroBaseline = errors.New("zero baseline")
	// ErrUndefinedCorrelation: fewer than two paired months, or a constant series.
	ErrUndefinedCorrelation = errors.New("undefined correlation")
	// ErrDegenerateSample: a t-test sample is too small or has no variance.
	ErrDegenerateSample = errors.New("degenerate sample")
	// ErrDegreesOfFreedomMismatch: a pair's pre-trial length differs from the run's degrees of freedom.
	ErrDegreesOfFreedomMismatch = errors.New("degrees of freedom mismatch")
	// ErrNoCandidate: no control store could be scored for a trial store.
	ErrNoCandidate = errors.New("no candidate control store")
)

// EntityError attaches the failing entity to one of the sentinel errors.
type EntityError struct {
	Stage        string
	Store        int
	TrialStore   int
	ControlStore int
	Month        YearMonth
	Metric       Metric
	Err          error
}

func (e *EntityError) Error() string {
	var parts []string
	if e.Stage != "" {
		parts = append(parts, e.Stage)
	}
	if e.Store != 0 {
		parts = append(parts, fmt.Sprintf("store=%d", e.Store))
	}
	if e.TrialStore != 0 {
		parts = append(parts, fmt.Sprintf("trial=%d", e.TrialStore))
	}
	if e.ControlStore != 0 {
		parts = append(parts, fmt.Sprintf("control=%d", e.ControlStore))
	}
	if e.Month != 0 {
		parts = append(parts, fmt.Sprintf("month=%s", e.Month))
	}
	if e.Metric != Combined {
		parts = append(parts, fmt.Sprintf("metric=%s", e.Metric))
	}
	return strings.Join(parts, " ") + ": " + e.Err.Error()
}

func (e *EntityError) Unwrap() error { return e.Err }
