package report

import (
	"sort"

	"chips-trial/pkg/models"
)

// Assemble joins the trial series, the scaled control series, the percentage
// differences and the verdicts of one evaluation into one row per month.
// Months present on only one side are kept with the other side at zero.
func Assemble(trial []models.Point, ev models.Evaluation, tw models.TrialWindow) []models.ComparisonRow {
	rows := make(map[models.YearMonth]*models.ComparisonRow)
	row := func(ym models.YearMonth) *models.ComparisonRow {
		r, ok := rows[ym]
		if !ok {
			r = &models.ComparisonRow{
				TrialStore:   ev.TrialStore,
				ControlStore: ev.ControlStore,
				Metric:       ev.Metric,
				Month:        ym,
				Window:       tw.Label(ym),
			}
			rows[ym] = r
		}
		return r
	}

	for _, p := range trial {
		row(p.Month).TrialValue = p.Value
	}
	for _, p := range ev.Scaled.Points {
		r := row(p.Month)
		r.ControlValue = p.Value
		r.ScaledControlValue = p.ScaledValue
	}
	for _, d := range ev.Differences {
		r := row(d.Month)
		r.PercentageDiff = d.Value
		r.HasPercentageDiff = true
	}
	for _, v := range ev.Verdicts {
		r := row(v.Month)
		r.HasVerdict = true
		r.TScore = v.TScore
		r.PValue = v.PValue
		r.IsSignificant = v.IsSignificant
	}

	out := make([]models.ComparisonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
