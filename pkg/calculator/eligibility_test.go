package calculator

import (
	"testing"

	"chips-trial/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithCounts(counts map[int]int) models.MetricTable {
	table := make(models.MetricTable)
	for store, n := range counts {
		ym := firstMonth
		for i := 0; i < n; i++ {
			table.Add(models.StoreMonthMetric{StoreID: store, Month: ym, TotalSales: 100, NumCustomers: 10})
			ym = ym.Next()
		}
	}
	return table
}

func TestFilter_ObservationBoundary(t *testing.T) {
	table := tableWithCounts(map[int]int{1: 12, 2: 11, 3: 12, 77: 12})
	window := models.TrialWindow{Start: 201902, End: 201904}

	elig, err := Filter(table, 12, window, []int{77}, []int{77})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3, 77}, elig.Stores, "exactly 12 included, 11 excluded")
	assert.Equal(t, []int{1, 3}, elig.Candidates, "trial store never a candidate")
	assert.Len(t, elig.Full, 36)
	assert.Len(t, elig.PreTrial, 21, "201807..201901 for three stores")
	assert.Len(t, elig.Trial, 9)

	_, ok := elig.PreTrial[models.StoreKey{StoreID: 77, Month: 201901}]
	assert.True(t, ok, "trial store kept for comparison")
	for k := range elig.Trial {
		assert.Equal(t, models.Trial, window.Label(k.Month))
	}
}

func TestFilter_MoreThanRequiredIsExcluded(t *testing.T) {
	table := tableWithCounts(map[int]int{1: 13, 2: 12})
	elig, err := Filter(table, 12, models.TrialWindow{Start: 201902, End: 201904}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, elig.Stores)
}

func TestFilter_TrialStoreWithoutHistory(t *testing.T) {
	table := tableWithCounts(map[int]int{1: 12, 77: 12, 86: 11})

	elig, err := Filter(table, 12, models.TrialWindow{Start: 201902, End: 201904}, []int{77, 86}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientHistory)
	assert.Contains(t, err.Error(), "store=86")
	assert.NotContains(t, err.Error(), "store=77")
	assert.Equal(t, []int{1}, elig.Candidates)
}

func TestPretrialDF(t *testing.T) {
	table := tableWithCounts(map[int]int{1: 12})
	assert.Equal(t, 6, PretrialDF(table, models.TrialWindow{Start: 201902, End: 201904}))
}
