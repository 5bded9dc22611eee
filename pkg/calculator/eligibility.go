package calculator

import (
	"errors"
	"fmt"
	"sort"

	"chips-trial/pkg/models"
)

// Eligibility is the output of the eligibility filter.
type Eligibility struct {
	// Stores with exactly the required number of observations, ascending.
	Stores []int
	// Candidates are the eligible stores minus the excluded ones.
	Candidates []int
	// Full is the metric table restricted to eligible stores.
	Full     models.MetricTable
	PreTrial models.MetricTable
	Trial    models.MetricTable
}

// Filter keeps stores observed exactly required times and slices the table
// into the pre-trial and trial windows.
//
// Every trial store lacking full history yields an EntityError wrapping
// models.ErrInsufficientHistory; the remaining output is still usable.
func Filter(table models.MetricTable, required int, window models.TrialWindow, trialStores, excluded []int) (Eligibility, error) {
	counts := table.ObservationCounts()

	eligible := make(map[int]bool)
	for id, n := range counts {
		if n == required {
			eligible[id] = true
		}
	}

	skip := make(map[int]bool, len(trialStores)+len(excluded))
	for _, id := range trialStores {
		skip[id] = true
	}
	for _, id := range excluded {
		skip[id] = true
	}

	out := Eligibility{
		Full:     table.Filter(func(r models.StoreMonthMetric) bool { return eligible[r.StoreID] }),
		PreTrial: make(models.MetricTable),
		Trial:    make(models.MetricTable),
	}
	for id := range eligible {
		out.Stores = append(out.Stores, id)
		if !skip[id] {
			out.Candidates = append(out.Candidates, id)
		}
	}
	sort.Ints(out.Stores)
	sort.Ints(out.Candidates)

	for k, r := range out.Full {
		switch window.Label(k.Month) {
		case models.PreTrial:
			out.PreTrial[k] = r
		case models.Trial:
			out.Trial[k] = r
		}
	}

	var errs []error
	for _, id := range trialStores {
		if !eligible[id] {
			errs = append(errs, &models.EntityError{
				Stage: "eligibility", Store: id,
				Err: fmt.Errorf("%d of %d months observed: %w", counts[id], required, models.ErrInsufficientHistory),
			})
		}
	}
	return out, errors.Join(errs...)
}

// PretrialDF is the degrees of freedom shared by every pair of a run: the
// number of observed pre-trial months minus one.
func PretrialDF(table models.MetricTable, window models.TrialWindow) int {
	n := 0
	for _, ym := range table.Months() {
		if window.Label(ym) == models.PreTrial {
			n++
		}
	}
	return n - 1
}
