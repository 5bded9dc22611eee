package scaling

import (
	"fmt"

	"chips-trial/pkg/models"
)

// Ratio returns sum(trial pre-trial) / sum(control pre-trial) for metric m.
// Only pre-trial rows should be passed in; the ratio never sees trial months.
func Ratio(pre models.MetricTable, trialStore, controlStore int, m models.Metric) (float64, error) {
	trialSum := models.SumValues(pre.Series(trialStore, m))
	controlSum := models.SumValues(pre.Series(controlStore, m))
	if controlSum == 0 {
		return 0, &models.EntityError{
			Stage: "scale", TrialStore: trialStore, ControlStore: controlStore, Metric: m,
			Err: fmt.Errorf("control pre-trial sum is 0: %w", models.ErrZeroBaseline),
		}
	}
	return trialSum / controlSum, nil
}

// Apply multiplies every point of series by ratio.
func Apply(controlStore int, series []models.Point, ratio float64) []models.ScaledPoint {
	out := make([]models.ScaledPoint, len(series))
	for i, p := range series {
		out[i] = models.ScaledPoint{
			ControlStore: controlStore,
			Month:        p.Month,
			Value:        p.Value,
			ScaledValue:  p.Value * ratio,
		}
	}
	return out
}

// Scale computes the ratio from pre and applies it to the control store's
// whole series in full (pre-trial, trial and post-trial months).
func Scale(pre, full models.MetricTable, trialStore, controlStore int, m models.Metric) (models.ScaledControlSeries, error) {
	ratio, err := Ratio(pre, trialStore, controlStore, m)
	if err != nil {
		return models.ScaledControlSeries{}, err
	}
	return models.ScaledControlSeries{
		TrialStore:   trialStore,
		ControlStore: controlStore,
		Metric:       m,
		Ratio:        ratio,
		Points:       Apply(controlStore, full.Series(controlStore, m), ratio),
	}, nil
}

// Window returns the scaled values of the points that fall in w.
func Window(points []models.ScaledPoint, tw models.TrialWindow, w models.Window) []float64 {
	var out []float64
	for _, p := range points {
		if tw.Label(p.Month) == w {
			out = append(out, p.ScaledValue)
		}
	}
	return out
}
