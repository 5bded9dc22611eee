package calculator

import (
	"errors"
	"fmt"
	"sort"

	"chips-trial/pkg/models"
)

type monthAccumulator struct {
	sales    float64
	quantity int
	rows     int
	cards    map[int]struct{}
}

// Aggregate collapses transactions into one StoreMonthMetric per (store, month).
//
// Keys whose ratios are undefined (no known customer, or no units sold) are
// left out of the table and reported in the returned error, one
// EntityError wrapping models.ErrDivisionUndefined per key. The table of the
// remaining keys is always returned.
func Aggregate(records []models.TransactionRecord) (models.MetricTable, error) {
	groups := make(map[models.StoreKey]*monthAccumulator)
	for _, r := range records {
		key := models.StoreKey{StoreID: r.StoreID, Month: r.Month()}
		acc, ok := groups[key]
		if !ok {
			acc = &monthAccumulator{cards: make(map[int]struct{})}
			groups[key] = acc
		}
		acc.sales += r.TotalSales
		acc.quantity += r.ProductQuantity
		acc.rows++
		if r.LoyaltyCardID > 0 {
			acc.cards[r.LoyaltyCardID] = struct{}{}
		}
	}

	keys := make([]models.StoreKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].StoreID != keys[j].StoreID {
			return keys[i].StoreID < keys[j].StoreID
		}
		return keys[i].Month < keys[j].Month
	})

	table := make(models.MetricTable, len(groups))
	var errs []error
	for _, k := range keys {
		row, err := buildMetric(k, groups[k])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		table[k] = row
	}
	return table, errors.Join(errs...)
}

func buildMetric(k models.StoreKey, acc *monthAccumulator) (models.StoreMonthMetric, error) {
	customers := len(acc.cards)
	if customers == 0 {
		return models.StoreMonthMetric{}, &models.EntityError{
			Stage: "aggregate", Store: k.StoreID, Month: k.Month,
			Err: fmt.Errorf("no customers: %w", models.ErrDivisionUndefined),
		}
	}
	if acc.quantity == 0 {
		return models.StoreMonthMetric{}, &models.EntityError{
			Stage: "aggregate", Store: k.StoreID, Month: k.Month,
			Err: fmt.Errorf("no units sold: %w", models.ErrDivisionUndefined),
		}
	}
	return models.StoreMonthMetric{
		StoreID:                 k.StoreID,
		Month:                   k.Month,
		TotalSales:              acc.sales,
		NumCustomers:            customers,
		Transactions:            acc.rows,
		Quantity:                acc.quantity,
		TransactionsPerCustomer: float64(acc.rows) / float64(customers),
		ChipsPerCustomer:        float64(acc.quantity) / float64(customers),
		AvgPricePerUnit:         acc.sales / float64(acc.quantity),
	}, nil
}
