package calculator

import (
	"time"

	"chips-trial/pkg/models"
)

// pattern is the monthly customer count shape shared by the synthetic stores,
// July 2018 to June 2019.
var pattern = []int{10, 12, 9, 13, 11, 14, 10, 12, 11, 13, 12, 10}

var firstMonth = models.YearMonth(201807)

// storeTransactions emits one single-unit, 4.00 transaction per customer and month.
func storeTransactions(store int, customers []int) []models.TransactionRecord {
	var out []models.TransactionRecord
	ym := firstMonth
	for _, n := range customers {
		for k := 0; k < n; k++ {
			out = append(out, models.TransactionRecord{
				StoreID:         store,
				LoyaltyCardID:   store*1000 + k + 1,
				Date:            ym.Time().AddDate(0, 0, k%28),
				ProductQuantity: 1,
				TotalSales:      4.0,
			})
		}
		ym = ym.Next()
	}
	return out
}

func mapPattern(f func(i, v int) int) []int {
	out := make([]int, len(pattern))
	for i, v := range pattern {
		out[i] = f(i, v)
	}
	return out
}

// scenario builds a year of transactions where store 233 follows trial store
// 77 up to scale, 77 gains 50% during the trial, and store 86 lacks a month.
func scenario() []models.TransactionRecord {
	noise := []int{0, 1, 0, -1, 1, 0, -1, 0, 0, 0, 1, 0}
	var records []models.TransactionRecord
	records = append(records, storeTransactions(77, mapPattern(func(i, v int) int {
		if i >= 7 && i <= 9 {
			return (v*3 + 1) / 2
		}
		return v + noise[i]
	}))...)
	records = append(records, storeTransactions(233, mapPattern(func(_, v int) int { return 2 * v }))...)
	records = append(records, storeTransactions(40, mapPattern(func(_, v int) int { return 25 - v }))...)
	records = append(records, storeTransactions(155, mapPattern(func(i, _ int) int {
		if i%3 == 0 {
			return 32
		}
		return 30
	}))...)
	records = append(records, storeTransactions(300, mapPattern(func(_, v int) int { return 8 + v%3 }))...)
	records = append(records, storeTransactions(86, pattern[:11])...)
	return records
}

func defaultConfig() models.Config {
	return models.Config{
		CorrWeight:               0.5,
		Window:                   models.TrialWindow{Start: 201902, End: 201904},
		RequiredObservationCount: 12,
		ConfidenceLevel:          0.95,
		Alpha:                    0.05,
		TrialStores:              []int{77, 86},
		ExcludedStores:           []int{77, 86, 88},
		SelectionMetrics:         []models.Metric{models.TotalSales, models.NumCustomers},
		EvaluationMetrics:        []models.Metric{models.TotalSales, models.NumCustomers},
		Workers:                  2,
		TopN:                     3,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
