package calculator

import (
	"errors"
	"testing"

	"chips-trial/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Metrics(t *testing.T) {
	records := []models.TransactionRecord{
		{StoreID: 1, LoyaltyCardID: 1001, Date: day(2018, 7, 1), ProductQuantity: 2, TotalSales: 7.0},
		{StoreID: 1, LoyaltyCardID: 1001, Date: day(2018, 7, 15), ProductQuantity: 1, TotalSales: 3.5},
		{StoreID: 1, LoyaltyCardID: 1002, Date: day(2018, 7, 31), ProductQuantity: 3, TotalSales: 9.5},
		{StoreID: 1, LoyaltyCardID: 1002, Date: day(2018, 8, 1), ProductQuantity: 2, TotalSales: 6.0},
		{StoreID: 2, LoyaltyCardID: 2001, Date: day(2018, 7, 3), ProductQuantity: 1, TotalSales: 4.2},
	}

	table, err := Aggregate(records)
	require.NoError(t, err)
	require.Len(t, table, 3)

	jul := table[models.StoreKey{StoreID: 1, Month: 201807}]
	assert.InDelta(t, 20.0, jul.TotalSales, 1e-9)
	assert.Equal(t, 2, jul.NumCustomers)
	assert.Equal(t, 3, jul.Transactions)
	assert.InDelta(t, 1.5, jul.TransactionsPerCustomer, 1e-12)
	assert.InDelta(t, 3.0, jul.ChipsPerCustomer, 1e-12)
	assert.InDelta(t, 20.0/6.0, jul.AvgPricePerUnit, 1e-12)

	aug := table[models.StoreKey{StoreID: 1, Month: 201808}]
	assert.Equal(t, 1, aug.NumCustomers)
	assert.InDelta(t, 3.0, aug.AvgPricePerUnit, 1e-12)

	assert.Equal(t, []int{1, 2}, table.Stores())
	assert.Equal(t, float64(2), jul.Value(models.NumCustomers))
}

func TestAggregate_ZeroCustomersIsDivisionUndefined(t *testing.T) {
	records := []models.TransactionRecord{
		{StoreID: 5, LoyaltyCardID: 0, Date: day(2018, 9, 2), ProductQuantity: 2, TotalSales: 7.0},
		{StoreID: 5, LoyaltyCardID: 5001, Date: day(2018, 10, 2), ProductQuantity: 2, TotalSales: 7.0},
	}

	table, err := Aggregate(records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDivisionUndefined))

	var ee *models.EntityError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 5, ee.Store)
	assert.Equal(t, models.YearMonth(201809), ee.Month)

	// The offending key is dropped, the rest is kept.
	assert.Len(t, table, 1)
	_, ok := table[models.StoreKey{StoreID: 5, Month: 201810}]
	assert.True(t, ok)
}

func TestAggregate_ZeroQuantityIsDivisionUndefined(t *testing.T) {
	records := []models.TransactionRecord{
		{StoreID: 6, LoyaltyCardID: 6001, Date: day(2019, 1, 2), ProductQuantity: 0, TotalSales: 0},
		{StoreID: 7, LoyaltyCardID: 0, Date: day(2019, 1, 2), ProductQuantity: 0, TotalSales: 0},
	}

	table, err := Aggregate(records)
	assert.Empty(t, table)
	assert.ErrorIs(t, err, models.ErrDivisionUndefined)
	assert.Len(t, flatten(err), 2, "one error per offending key")
}

func TestAggregate_Empty(t *testing.T) {
	table, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, table)
}
