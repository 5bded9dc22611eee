package models

import "sort"

// MetricTable maps (store, month) to its aggregated metrics.
type MetricTable map[StoreKey]StoreMonthMetric

// Stores returns the distinct store ids in ascending order.
func (t MetricTable) Stores() []int {
	seen := make(map[int]struct{})
	for k := range t {
		seen[k.StoreID] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Months returns the distinct months in ascending order.
func (t MetricTable) Months() []YearMonth {
	seen := make(map[YearMonth]struct{})
	for k := range t {
		seen[k.Month] = struct{}{}
	}
	out := make([]YearMonth, 0, len(seen))
	for ym := range seen {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ObservationCounts returns the number of monthly records per store.
func (t MetricTable) ObservationCounts() map[int]int {
	out := make(map[int]int)
	for k := range t {
		out[k.StoreID]++
	}
	return out
}

// Series returns the metric of one store ordered by month.
func (t MetricTable) Series(storeID int, m Metric) []Point {
	var out []Point
	for k, v := range t {
		if k.StoreID == storeID {
			out = append(out, Point{Month: k.Month, Value: v.Value(m)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Filter returns a new table holding the rows keep accepts.
func (t MetricTable) Filter(keep func(StoreMonthMetric) bool) MetricTable {
	out := make(MetricTable)
	for k, v := range t {
		if keep(v) {
			out[k] = v
		}
	}
	return out
}

// Add inserts a row keyed by its own store and month.
func (t MetricTable) Add(row StoreMonthMetric) {
	t[StoreKey{StoreID: row.StoreID, Month: row.Month}] = row
}

// SumValues adds up the values of a series.
func SumValues(points []Point) float64 {
	total := 0.0
	for _, p := range points {
		total += p.Value
	}
	return total
}

// Values extracts the values of a series.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
