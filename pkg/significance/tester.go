// Package significance runs the three-step trial evaluation: control
// stability, trial/control equivalence before the trial, and the monthly
// trial effect on percentage differences.
package significance

import (
	"errors"
	"fmt"
	"sort"

	"chips-trial/pkg/models"
	"chips-trial/pkg/scaling"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PercentageDiff is (trial - control) / mean(trial, control).
func PercentageDiff(trial, control float64) (float64, error) {
	mid := (trial + control) / 2
	if mid == 0 {
		return 0, fmt.Errorf("trial + control is 0: %w", models.ErrDivisionUndefined)
	}
	return (trial - control) / mid, nil
}

// Differences pairs the trial series with the scaled control series by month
// and computes the labelled percentage difference of each shared month.
// Months whose difference is undefined are reported and left out.
func Differences(trialStore int, trial []models.Point, scaled models.ScaledControlSeries, tw models.TrialWindow) ([]models.PercentageDifference, error) {
	byMonth := make(map[models.YearMonth]float64, len(scaled.Points))
	for _, p := range scaled.Points {
		byMonth[p.Month] = p.ScaledValue
	}
	var out []models.PercentageDifference
	var errs []error
	for _, p := range trial {
		c, ok := byMonth[p.Month]
		if !ok {
			continue
		}
		v, err := PercentageDiff(p.Value, c)
		if err != nil {
			errs = append(errs, &models.EntityError{
				Stage: "percentage-diff", TrialStore: trialStore, ControlStore: scaled.ControlStore,
				Month: p.Month, Metric: scaled.Metric, Err: err,
			})
			continue
		}
		out = append(out, models.PercentageDifference{
			TrialStore:   trialStore,
			ControlStore: scaled.ControlStore,
			Month:        p.Month,
			Window:       tw.Label(p.Month),
			Value:        v,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, errors.Join(errs...)
}

// Tester holds the thresholds shared by every pair of a run.
type Tester struct {
	Alpha      float64
	Confidence float64
	// DF is computed once per run from the pre-trial calendar.
	DF     int
	Window models.TrialWindow
}

// Evaluate runs the three steps in order for one trial/control pair and metric.
// Steps 1 and 2 are always reported; Evaluation.Trustworthy tells whether
// step 3 can be read without further review. A step 3 failure still returns
// the evaluation with ControlStable and PairEquivalent filled in.
func (t *Tester) Evaluate(trialStore int, trial []models.Point, scaled models.ScaledControlSeries) (models.Evaluation, error) {
	ev := models.Evaluation{
		TrialStore:   trialStore,
		ControlStore: scaled.ControlStore,
		Metric:       scaled.Metric,
		Scaled:       scaled,
	}
	wrap := func(stage string, err error) error {
		return &models.EntityError{Stage: stage, TrialStore: trialStore, ControlStore: scaled.ControlStore, Metric: scaled.Metric, Err: err}
	}

	// Step 1: control store scaled pre-trial vs trial, unequal variances.
	controlPre := scaling.Window(scaled.Points, t.Window, models.PreTrial)
	controlTrial := scaling.Window(scaled.Points, t.Window, models.Trial)
	step1, err := TTest("control-stability", controlPre, controlTrial, false, t.Alpha)
	if err != nil {
		return ev, wrap("step1", err)
	}
	ev.ControlStable = step1

	// Step 2: trial raw pre-trial vs control scaled pre-trial, equal variances.
	var trialPre, trialTrial []float64
	for _, p := range trial {
		switch t.Window.Label(p.Month) {
		case models.PreTrial:
			trialPre = append(trialPre, p.Value)
		case models.Trial:
			trialTrial = append(trialTrial, p.Value)
		}
	}
	step2, err := TTest("pair-equivalence", trialPre, controlPre, true, t.Alpha)
	if err != nil {
		return ev, wrap("step2", err)
	}
	ev.PairEquivalent = step2

	// Step 3: trial months against the pre-trial percentage differences.
	diffs, diffErr := Differences(trialStore, trial, scaled, t.Window)
	ev.Differences = diffs
	var pre []float64
	for _, d := range diffs {
		if d.Window == models.PreTrial {
			pre = append(pre, d.Value)
		}
	}
	var errs []error
	if diffErr != nil {
		errs = append(errs, diffErr)
	}
	if len(pre)-1 != t.DF {
		errs = append(errs, fmt.Errorf("%d pre-trial differences for df=%d: %w", len(pre), t.DF, models.ErrDegreesOfFreedomMismatch))
	} else {
		ev.PretrialMean, ev.PretrialStdev = stat.MeanStdDev(pre, nil)
		for _, d := range diffs {
			if d.Window != models.Trial {
				continue
			}
			ts, p, crit, sig, err := MonthVerdict(d.Value, ev.PretrialMean, ev.PretrialStdev, t.DF, t.Confidence)
			if err != nil {
				// Same pre-trial statistics for every month: one error is enough.
				errs = append(errs, err)
				break
			}
			ev.Verdicts = append(ev.Verdicts, models.SignificanceVerdict{
				TrialStore:    trialStore,
				ControlStore:  scaled.ControlStore,
				Metric:        scaled.Metric,
				Month:         d.Month,
				PercentageDif: d.Value,
				TScore:        ts,
				PValue:        p,
				CriticalT:     crit,
				DF:            t.DF,
				IsSignificant: sig,
			})
		}
	}

	if denom := floats.Sum(controlTrial); denom != 0 {
		ev.Uplift = floats.Sum(trialTrial) / denom
	}
	if len(controlTrial) > 0 {
		mean := stat.Mean(controlTrial, nil)
		ev.Band = models.ControlBand{
			Mean:  mean,
			Upper: mean + mean*ev.PretrialStdev*2,
			Lower: mean - mean*ev.PretrialStdev*2,
		}
	}
	if err := errors.Join(errs...); err != nil {
		return ev, wrap("step3", err)
	}
	return ev, nil
}
