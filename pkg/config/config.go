package config

import (
	"fmt"
	"os"

	"chips-trial/pkg/models"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the TOML configuration file.
type AppConfig struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Source   SourceConfig   `toml:"source"`
	Output   OutputConfig   `toml:"output"`
}

// AnalysisConfig holds the trial evaluation parameters.
type AnalysisConfig struct {
	CorrWeight               float64  `toml:"corr_weight"`
	TrialStart               string   `toml:"trial_start"` // YYYYMM
	TrialEnd                 string   `toml:"trial_end"`   // YYYYMM
	RequiredObservationCount int      `toml:"required_observation_count"`
	ConfidenceLevel          float64  `toml:"confidence_level"`
	Alpha                    float64  `toml:"alpha"`
	TrialStores              []int    `toml:"trial_stores"`
	ExcludedStores           []int    `toml:"excluded_store_ids"`
	SelectionMetrics         []string `toml:"selection_metrics"`
	EvaluationMetrics        []string `toml:"evaluation_metrics"`
	Workers                  int      `toml:"workers"`
	TopN                     int      `toml:"top_n"`
}

// SourceConfig tells where transactions come from: a csv/xlsx file or a MySQL table.
type SourceConfig struct {
	Path  string `toml:"path"`
	Sheet string `toml:"sheet"`
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}

// OutputConfig tells where result tables go.
type OutputConfig struct {
	XLSX   string `toml:"xlsx"`
	CSVDir string `toml:"csv_dir"`
}

// DefaultConfig reproduces the chips category trial: stores 77, 86 and 88
// trialled from February to April 2019 over a twelve-month observation year.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Analysis: AnalysisConfig{
			CorrWeight:               0.5,
			TrialStart:               "201902",
			TrialEnd:                 "201904",
			RequiredObservationCount: 12,
			ConfidenceLevel:          0.95,
			Alpha:                    0.05,
			TrialStores:              []int{77, 86, 88},
			ExcludedStores:           []int{77, 86, 88},
			SelectionMetrics:         []string{"total_sales", "num_customers"},
			EvaluationMetrics:        []string{"total_sales", "num_customers"},
			Workers:                  4,
			TopN:                     5,
		},
		Source: SourceConfig{
			Table: "QVI_data",
		},
		Output: OutputConfig{
			XLSX: "trial_results.xlsx",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults; a
// path that does not exist is an error.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration as TOML.
func (c *AppConfig) Save(path string) error {
	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate checks the analysis section.
func (c *AppConfig) Validate() error {
	_, err := c.Analysis.Model()
	return err
}

// Model converts the analysis section to the pipeline configuration.
func (a AnalysisConfig) Model() (models.Config, error) {
	if a.CorrWeight < 0 || a.CorrWeight > 1 {
		return models.Config{}, fmt.Errorf("corr_weight %v outside [0,1]", a.CorrWeight)
	}
	start, err := models.ParseYearMonth(a.TrialStart)
	if err != nil {
		return models.Config{}, fmt.Errorf("trial_start: %w", err)
	}
	end, err := models.ParseYearMonth(a.TrialEnd)
	if err != nil {
		return models.Config{}, fmt.Errorf("trial_end: %w", err)
	}
	window := models.TrialWindow{Start: start, End: end}
	if err := window.Validate(); err != nil {
		return models.Config{}, err
	}
	if a.RequiredObservationCount <= 0 {
		return models.Config{}, fmt.Errorf("required_observation_count must be positive")
	}
	if a.ConfidenceLevel <= 0 || a.ConfidenceLevel >= 1 {
		return models.Config{}, fmt.Errorf("confidence_level %v outside (0,1)", a.ConfidenceLevel)
	}
	if a.Alpha <= 0 || a.Alpha >= 1 {
		return models.Config{}, fmt.Errorf("alpha %v outside (0,1)", a.Alpha)
	}
	if len(a.TrialStores) == 0 {
		return models.Config{}, fmt.Errorf("trial_stores is empty")
	}
	selection, err := models.ParseMetrics(a.SelectionMetrics)
	if err != nil {
		return models.Config{}, fmt.Errorf("selection_metrics: %w", err)
	}
	evaluation, err := models.ParseMetrics(a.EvaluationMetrics)
	if err != nil {
		return models.Config{}, fmt.Errorf("evaluation_metrics: %w", err)
	}
	if len(selection) == 0 || len(evaluation) == 0 {
		return models.Config{}, fmt.Errorf("selection_metrics and evaluation_metrics are required")
	}

	// Trial stores never compete as controls.
	excluded := append([]int(nil), a.ExcludedStores...)
	seen := make(map[int]bool, len(excluded))
	for _, id := range excluded {
		seen[id] = true
	}
	for _, id := range a.TrialStores {
		if !seen[id] {
			excluded = append(excluded, id)
		}
	}

	return models.Config{
		CorrWeight:               a.CorrWeight,
		Window:                   window,
		RequiredObservationCount: a.RequiredObservationCount,
		ConfidenceLevel:          a.ConfidenceLevel,
		Alpha:                    a.Alpha,
		TrialStores:              a.TrialStores,
		ExcludedStores:           excluded,
		SelectionMetrics:         selection,
		EvaluationMetrics:        evaluation,
		Workers:                  a.Workers,
		TopN:                     a.TopN,
	}, nil
}
