package models

import (
	"time"
)

/*
LOAD → raw rows as handed over by the ingestion step (already cleaned).
*/

// TransactionRecord is one purchase event. LoyaltyCardID <= 0 means the card is unknown.
type TransactionRecord struct {
	StoreID         int
	LoyaltyCardID   int
	Date            time.Time
	ProductQuantity int
	TotalSales      float64
}

// Month returns the year-month the transaction belongs to.
func (r TransactionRecord) Month() YearMonth {
	return YearMonthOf(r.Date)
}

/*
AGGREGATE → one observation per store and month.
*/

// StoreKey identifies a StoreMonthMetric.
type StoreKey struct {
	StoreID int
	Month   YearMonth
}

// StoreMonthMetric holds the monthly metrics of one store.
type StoreMonthMetric struct {
	StoreID                 int
	Month                   YearMonth
	TotalSales              float64
	NumCustomers            int
	Transactions            int
	Quantity                int
	TransactionsPerCustomer float64
	ChipsPerCustomer        float64
	AvgPricePerUnit         float64
}

// Value returns the metric m of the observation.
func (s StoreMonthMetric) Value(m Metric) float64 {
	switch m {
	case TotalSales:
		return s.TotalSales
	case NumCustomers:
		return float64(s.NumCustomers)
	case TransactionsPerCustomer:
		return s.TransactionsPerCustomer
	case ChipsPerCustomer:
		return s.ChipsPerCustomer
	case AvgPricePerUnit:
		return s.AvgPricePerUnit
	}
	return 0
}

// Point is one monthly value of a series.
type Point struct {
	Month YearMonth
	Value float64
}

/*
SIMILARITY → per month rows, per pair composites.
*/

// SimilarityScore is the monthly similarity of a candidate control store to a trial store.
type SimilarityScore struct {
	TrialStore        int
	ControlStore      int
	Metric            Metric
	Month             YearMonth
	Correlation       float64
	MagnitudeDistance float64
}

// PairKey is the stable merge key of the two scoring passes.
type PairKey struct {
	TrialStore   int
	ControlStore int
}

// CompositeScore ranks a candidate control store for one trial store.
type CompositeScore struct {
	TrialStore   int
	ControlStore int
	Metric       Metric // zero value for the combined ranking
	Correlation  float64
	Magnitude    float64
	Score        float64
}

// Key returns the pair key of the score.
func (c CompositeScore) Key() PairKey {
	return PairKey{TrialStore: c.TrialStore, ControlStore: c.ControlStore}
}

/*
SCALING → control store series brought to the trial store's scale.
*/

// ScaledPoint is one month of a scaled control series.
type ScaledPoint struct {
	ControlStore int
	Month        YearMonth
	Value        float64
	ScaledValue  float64
}

// ScaledControlSeries is a control store series for one metric and its baseline ratio.
type ScaledControlSeries struct {
	TrialStore   int
	ControlStore int
	Metric       Metric
	Ratio        float64
	Points       []ScaledPoint
}

/*
SIGNIFICANCE → test results and verdicts.
*/

// PercentageDifference compares a trial value with the scaled control value of the same month.
type PercentageDifference struct {
	TrialStore   int
	ControlStore int
	Month        YearMonth
	Window       Window
	Value        float64
}

// TTestResult is the outcome of a two-sample t-test.
type TTestResult struct {
	Name          string
	EqualVariance bool
	TStatistic    float64
	DF            float64
	PValue        float64
	CriticalT     float64
	RejectNull    bool
}

// SignificanceVerdict is the trial-effect verdict of one trial month.
type SignificanceVerdict struct {
	TrialStore    int
	ControlStore  int
	Metric        Metric
	Month         YearMonth
	PercentageDif float64
	TScore        float64
	PValue        float64
	CriticalT     float64
	DF            int
	IsSignificant bool
}

// ControlBand is the reporting band around the scaled control trial-period mean.
type ControlBand struct {
	Mean  float64
	Upper float64
	Lower float64
}

// Evaluation gathers the full significance protocol of one trial store and metric.
type Evaluation struct {
	TrialStore     int
	ControlStore   int
	Metric         Metric
	Scaled         ScaledControlSeries
	Differences    []PercentageDifference
	ControlStable  TTestResult // step 1
	PairEquivalent TTestResult // step 2
	PretrialMean   float64
	PretrialStdev  float64
	Verdicts       []SignificanceVerdict // step 3
	Uplift         float64
	Band           ControlBand
}

// Trustworthy reports whether steps 1 and 2 both kept their null hypotheses.
func (e Evaluation) Trustworthy() bool {
	return !e.ControlStable.RejectNull && !e.PairEquivalent.RejectNull
}

/*
REPORT → one row per trial store and month.
*/

// ComparisonRow joins raw, scaled and verdict values of one trial month.
type ComparisonRow struct {
	TrialStore         int
	ControlStore       int
	Metric             Metric
	Month              YearMonth
	Window             Window
	TrialValue         float64
	ControlValue       float64
	ScaledControlValue float64
	PercentageDiff     float64
	HasPercentageDiff  bool
	HasVerdict         bool
	TScore             float64
	PValue             float64
	IsSignificant      bool
}

// TrialResult is everything produced for one trial store.
type TrialResult struct {
	TrialStore   int
	ControlStore int
	Rankings     map[Metric][]CompositeScore
	Combined     []CompositeScore
	Evaluations  []Evaluation
	Rows         []ComparisonRow
	Err          error
}

// RunResult is the output of a full pipeline run.
type RunResult struct {
	Metrics        MetricTable
	EligibleStores []int
	DF             int
	Trials         []TrialResult
	Skipped        []error
}

/*
CONFIG → analysis parameters.
*/

// Config holds the parameters passed to the pipeline.
type Config struct {
	CorrWeight               float64
	Window                   TrialWindow
	RequiredObservationCount int
	ConfidenceLevel          float64
	Alpha                    float64
	TrialStores              []int
	ExcludedStores           []int
	SelectionMetrics         []Metric
	EvaluationMetrics        []Metric
	Workers                  int
	TopN                     int
	Verbose                  bool
}

// DistWeight is the magnitude-distance weight, 1 - CorrWeight.
func (c Config) DistWeight() float64 {
	return 1 - c.CorrWeight
}
