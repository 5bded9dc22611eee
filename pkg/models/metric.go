package models

import (
	"fmt"
	"strings"
)

// Metric identifies one of the monthly store metrics.
type Metric int

const (
	// Combined marks the averaged ranking across several metrics.
	Combined Metric = iota
	TotalSales
	NumCustomers
	TransactionsPerCustomer
	ChipsPerCustomer
	AvgPricePerUnit
)

// AllMetrics lists every concrete metric in table order.
var AllMetrics = []Metric{TotalSales, NumCustomers, TransactionsPerCustomer, ChipsPerCustomer, AvgPricePerUnit}

var metricNames = map[Metric]string{
	Combined:                "combined",
	TotalSales:              "total_sales",
	NumCustomers:            "num_customers",
	TransactionsPerCustomer: "transactions_per_customer",
	ChipsPerCustomer:        "chips_per_customer",
	AvgPricePerUnit:         "avg_price_per_unit",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric resolves a metric name. Combined is not accepted.
func ParseMetric(name string) (Metric, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, m := range AllMetrics {
		if metricNames[m] == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// ParseMetrics resolves a list of metric names.
func ParseMetrics(names []string) ([]Metric, error) {
	out := make([]Metric, 0, len(names))
	for _, n := range names {
		m, err := ParseMetric(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// MarshalText lets metrics appear as names in config files.
func (m Metric) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
