package models

import "fmt"

// Window labels a month relative to the trial period.
type Window int

const (
	PreTrial Window = iota
	Trial
	PostTrial
)

func (w Window) String() string {
	switch w {
	case PreTrial:
		return "pre"
	case Trial:
		return "trial"
	case PostTrial:
		return "post"
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// TrialWindow holds the inclusive trial boundaries.
type TrialWindow struct {
	Start YearMonth
	End   YearMonth
}

// Label places ym in the pre-trial, trial or post-trial window.
func (tw TrialWindow) Label(ym YearMonth) Window {
	switch {
	case ym < tw.Start:
		return PreTrial
	case ym > tw.End:
		return PostTrial
	default:
		return Trial
	}
}

func (tw TrialWindow) Validate() error {
	if tw.Start == 0 || tw.End == 0 {
		return fmt.Errorf("trial window not set")
	}
	if tw.End < tw.Start {
		return fmt.Errorf("trial end %s before start %s", tw.End, tw.Start)
	}
	return nil
}
