package report

import (
	"fmt"

	"chips-trial/pkg/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRankings   = "rankings"
	sheetSelection  = "selection"
	sheetComparison = "comparison"
	sheetTests      = "tests"
	sheetVerdicts   = "verdicts"
)

// TableOrder is the order tables are written in.
var TableOrder = []string{sheetSelection, sheetRankings, sheetComparison, sheetTests, sheetVerdicts}

// WriteWorkbook saves every result table of a run as one sheet of an XLSX file.
func WriteWorkbook(path string, res models.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	tables := Tables(res)
	for _, name := range TableOrder {
		rows := tables[name]
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		for i, r := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &r); err != nil {
				return fmt.Errorf("sheet %s row %d: %w", name, i+1, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if idx, err := f.GetSheetIndex(sheetComparison); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f.SaveAs(path)
}

// Tables renders the run as header-first rows, keyed by table name.
func Tables(res models.RunResult) map[string][][]any {
	rankings := [][]any{{"trial_store", "control_store", "metric", "correlation", "magnitude", "composite_score", "rank"}}
	selection := [][]any{{"trial_store", "control_store", "combined_score", "error"}}
	comparison := [][]any{{"trial_store", "control_store", "metric", "year_month", "window", "trial_value", "control_value", "scaled_control_value", "percentage_diff", "t_score", "p_value", "is_significant"}}
	tests := [][]any{{"trial_store", "control_store", "metric", "test", "equal_variance", "t_statistic", "df", "p_value", "critical_t", "reject_null", "ratio", "uplift", "band_lower", "band_upper"}}
	verdicts := [][]any{{"trial_store", "control_store", "metric", "year_month", "percentage_diff", "t_score", "critical_t", "df", "p_value", "is_significant", "trustworthy"}}

	for _, tr := range res.Trials {
		errText := ""
		if tr.Err != nil {
			errText = tr.Err.Error()
		}
		score := any("")
		if len(tr.Combined) > 0 {
			score = tr.Combined[0].Score
		}
		selection = append(selection, []any{tr.TrialStore, tr.ControlStore, score, errText})

		for _, m := range sortedMetrics(tr.Rankings) {
			for i, c := range tr.Rankings[m] {
				rankings = append(rankings, []any{c.TrialStore, c.ControlStore, m.String(), c.Correlation, c.Magnitude, c.Score, i + 1})
			}
		}
		for i, c := range tr.Combined {
			rankings = append(rankings, []any{c.TrialStore, c.ControlStore, models.Combined.String(), c.Correlation, c.Magnitude, c.Score, i + 1})
		}

		for _, r := range tr.Rows {
			pct, ts, pv, sig := any(""), any(""), any(""), any("")
			if r.HasPercentageDiff {
				pct = r.PercentageDiff
			}
			if r.HasVerdict {
				ts, pv, sig = r.TScore, r.PValue, r.IsSignificant
			}
			comparison = append(comparison, []any{r.TrialStore, r.ControlStore, r.Metric.String(), r.Month.String(), r.Window.String(),
				r.TrialValue, r.ControlValue, r.ScaledControlValue, pct, ts, pv, sig})
		}

		for _, ev := range tr.Evaluations {
			for _, t := range []models.TTestResult{ev.ControlStable, ev.PairEquivalent} {
				if t.Name == "" {
					continue
				}
				tests = append(tests, []any{ev.TrialStore, ev.ControlStore, ev.Metric.String(), t.Name, t.EqualVariance,
					t.TStatistic, t.DF, t.PValue, t.CriticalT, t.RejectNull, ev.Scaled.Ratio, ev.Uplift, ev.Band.Lower, ev.Band.Upper})
			}
			for _, v := range ev.Verdicts {
				verdicts = append(verdicts, []any{v.TrialStore, v.ControlStore, v.Metric.String(), v.Month.String(), v.PercentageDif,
					v.TScore, v.CriticalT, v.DF, v.PValue, v.IsSignificant, ev.Trustworthy()})
			}
		}
	}

	return map[string][][]any{
		sheetRankings:   rankings,
		sheetSelection:  selection,
		sheetComparison: comparison,
		sheetTests:      tests,
		sheetVerdicts:   verdicts,
	}
}

func sortedMetrics(rankings map[models.Metric][]models.CompositeScore) []models.Metric {
	var out []models.Metric
	for _, m := range models.AllMetrics {
		if _, ok := rankings[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
