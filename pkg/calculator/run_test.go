package calculator

import (
	"context"
	"errors"
	"testing"

	"chips-trial/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SelectsMatchedControlAndFlagsUplift(t *testing.T) {
	res, err := Run(context.Background(), scenario(), defaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 6, res.DF)
	assert.Equal(t, []int{40, 77, 155, 233, 300}, res.EligibleStores)
	require.Len(t, res.Trials, 2)

	tr := res.Trials[0]
	require.NoError(t, tr.Err)
	assert.Equal(t, 77, tr.TrialStore)
	assert.Equal(t, 233, tr.ControlStore)
	assert.Equal(t, 233, tr.Combined[0].ControlStore)
	assert.Len(t, tr.Rankings[models.TotalSales], 4)
	assert.Len(t, tr.Rankings[models.NumCustomers], 4)

	require.Len(t, tr.Evaluations, 2)
	for _, ev := range tr.Evaluations {
		assert.InDelta(t, 0.5, ev.Scaled.Ratio, 1e-12, ev.Metric.String())
		assert.False(t, ev.ControlStable.RejectNull, "control is stable")
		assert.False(t, ev.PairEquivalent.RejectNull, "pair is equivalent before the trial")
		assert.True(t, ev.Trustworthy())

		require.Len(t, ev.Verdicts, 3)
		for _, v := range ev.Verdicts {
			assert.Equal(t, models.Trial, defaultConfig().Window.Label(v.Month))
			assert.True(t, v.IsSignificant, "%s %s t=%.3f", ev.Metric, v.Month, v.TScore)
			assert.InDelta(t, 1.9432, v.CriticalT, 1e-3)
		}
		assert.Greater(t, ev.Uplift, 1.3)
	}

	// One comparison row per month and evaluation metric.
	assert.Len(t, tr.Rows, 24)
}

func TestRun_PartialFailure(t *testing.T) {
	res, err := Run(context.Background(), scenario(), defaultConfig())
	require.NoError(t, err)

	failed := res.Trials[1]
	assert.Equal(t, 86, failed.TrialStore)
	assert.True(t, errors.Is(failed.Err, models.ErrInsufficientHistory))
	assert.Zero(t, failed.ControlStore)
	assert.Empty(t, failed.Evaluations)

	assert.NoError(t, res.Trials[0].Err, "store 77 is unaffected")
}

func TestRun_Deterministic(t *testing.T) {
	records := scenario()
	cfg := defaultConfig()
	cfg.Workers = 4

	first, err := Run(context.Background(), records, cfg)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Run(context.Background(), records, cfg)
		require.NoError(t, err)
		assert.Equal(t, first.Trials[0].Combined, again.Trials[0].Combined)
		assert.Equal(t, first.Trials[0].Rows, again.Trials[0].Rows)
	}
}

func TestRun_DroppedKeysAreReported(t *testing.T) {
	records := append(scenario(), models.TransactionRecord{
		StoreID: 999, LoyaltyCardID: 0, Date: day(2018, 7, 4), ProductQuantity: 1, TotalSales: 4,
	})
	res, err := Run(context.Background(), records, defaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.ErrorIs(t, res.Skipped[0], models.ErrDivisionUndefined)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Window = models.TrialWindow{Start: 201904, End: 201902}
	_, err := Run(context.Background(), scenario(), cfg)
	assert.Error(t, err)

	cfg = defaultConfig()
	cfg.CorrWeight = -0.1
	_, err = Run(context.Background(), scenario(), cfg)
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, scenario(), defaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ExactControlKeepsStepOneAndTwo(t *testing.T) {
	// 233 is 77 doubled in every month, so every percentage difference is 0.
	var records []models.TransactionRecord
	records = append(records, storeTransactions(77, pattern)...)
	records = append(records, storeTransactions(233, mapPattern(func(_, v int) int { return 2 * v }))...)
	records = append(records, storeTransactions(40, mapPattern(func(_, v int) int { return 25 - v }))...)

	cfg := defaultConfig()
	cfg.TrialStores = []int{77}
	res, err := Run(context.Background(), records, cfg)
	require.NoError(t, err)
	require.Len(t, res.Trials, 1)

	tr := res.Trials[0]
	assert.Equal(t, 233, tr.ControlStore)
	assert.ErrorIs(t, tr.Err, models.ErrDegenerateSample)

	require.Len(t, tr.Evaluations, 2)
	for _, ev := range tr.Evaluations {
		assert.Equal(t, "control-stability", ev.ControlStable.Name, ev.Metric.String())
		assert.Equal(t, "pair-equivalence", ev.PairEquivalent.Name, ev.Metric.String())
		assert.False(t, ev.PairEquivalent.RejectNull)
		assert.Empty(t, ev.Verdicts)
	}
	assert.Len(t, tr.Rows, 24)
	for _, r := range tr.Rows {
		assert.True(t, r.HasPercentageDiff)
		assert.False(t, r.HasVerdict)
	}
}
