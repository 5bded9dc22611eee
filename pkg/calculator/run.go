package calculator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"chips-trial/pkg/models"
	"chips-trial/pkg/report"
	"chips-trial/pkg/scaling"
	"chips-trial/pkg/significance"
	"chips-trial/pkg/similarity"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Run aggregates the transactions, selects a control store for each trial
// store and evaluates the trial on every evaluation metric.
//
// Failures are kept per entity: a trial store that cannot be evaluated
// carries its error in TrialResult.Err and the other trial stores go on.
// Run itself only fails on an invalid configuration or a cancelled context.
func Run(ctx context.Context, records []models.TransactionRecord, cfg models.Config) (models.RunResult, error) {
	if err := validate(cfg); err != nil {
		return models.RunResult{}, err
	}
	weights, err := similarity.NewWeights(cfg.CorrWeight)
	if err != nil {
		return models.RunResult{}, err
	}

	var res models.RunResult
	table, err := Aggregate(records)
	res.Skipped = append(res.Skipped, flatten(err)...)
	for _, e := range flatten(err) {
		log.Printf("[WARN] dropped key: %v", e)
	}
	res.Metrics = table

	elig, err := Filter(table, cfg.RequiredObservationCount, cfg.Window, cfg.TrialStores, cfg.ExcludedStores)
	history := make(map[int]error)
	for _, e := range flatten(err) {
		var ee *models.EntityError
		if errors.As(e, &ee) {
			history[ee.Store] = e
		}
	}
	res.EligibleStores = elig.Stores
	res.DF = PretrialDF(elig.Full, cfg.Window)
	if cfg.Verbose {
		log.Printf("[INFO] stores=%d eligible=%d candidates=%d df=%d",
			len(table.Stores()), len(elig.Stores), len(elig.Candidates), res.DF)
	}

	scorer := similarity.NewScorer(weights)
	scorer.Verbose = cfg.Verbose
	tester := &significance.Tester{
		Alpha:      cfg.Alpha,
		Confidence: cfg.ConfidenceLevel,
		DF:         res.DF,
		Window:     cfg.Window,
	}

	var bar *progressbar.ProgressBar
	if cfg.Verbose {
		bar = progressbar.Default(int64(len(cfg.TrialStores)))
	} else {
		bar = progressbar.DefaultSilent(int64(len(cfg.TrialStores)))
	}

	res.Trials = make([]models.TrialResult, len(cfg.TrialStores))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, id := range cfg.TrialStores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := history[id]; err != nil {
				res.Trials[i] = models.TrialResult{TrialStore: id, Err: err}
			} else {
				res.Trials[i] = evaluateTrial(id, elig, scorer, tester, cfg)
			}
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("run: %w", err)
	}

	for _, tr := range res.Trials {
		if tr.Err != nil {
			log.Printf("[WARN] trial=%d: %v", tr.TrialStore, tr.Err)
		}
		if cfg.Verbose && tr.ControlStore != 0 {
			log.Printf("[INFO] trial=%d -> control=%d evaluations=%d", tr.TrialStore, tr.ControlStore, len(tr.Evaluations))
		}
	}
	return res, nil
}

func evaluateTrial(id int, elig Eligibility, scorer *similarity.Scorer, tester *significance.Tester, cfg models.Config) models.TrialResult {
	tr := models.TrialResult{TrialStore: id}

	sel, err := scorer.Select(elig.PreTrial, id, elig.Candidates, cfg.SelectionMetrics)
	tr.Rankings = make(map[models.Metric][]models.CompositeScore, len(sel.Rankings))
	for m, r := range sel.Rankings {
		tr.Rankings[m] = r.Ranked
	}
	tr.Combined = sel.Combined
	if err != nil {
		tr.Err = err
		return tr
	}
	tr.ControlStore = sel.ControlStore
	if cfg.Verbose {
		for _, c := range similarity.Top(sel.Combined, cfg.TopN) {
			log.Printf("[DEBUG] trial=%d candidate=%d score=%.6f corr=%.4f mag=%.4f",
				id, c.ControlStore, c.Score, c.Correlation, c.Magnitude)
		}
	}

	var errs []error
	for _, m := range cfg.EvaluationMetrics {
		scaled, err := scaling.Scale(elig.PreTrial, elig.Full, id, sel.ControlStore, m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		trial := elig.Full.Series(id, m)
		ev, err := tester.Evaluate(id, trial, scaled)
		if err != nil {
			errs = append(errs, err)
			// A step 3 failure keeps the step 1 and 2 results for review.
			if ev.ControlStable.Name == "" || ev.PairEquivalent.Name == "" {
				continue
			}
		}
		tr.Evaluations = append(tr.Evaluations, ev)
		tr.Rows = append(tr.Rows, report.Assemble(trial, ev, cfg.Window)...)
	}
	tr.Err = errors.Join(errs...)
	return tr
}

func validate(cfg models.Config) error {
	if err := cfg.Window.Validate(); err != nil {
		return err
	}
	switch {
	case cfg.RequiredObservationCount <= 0:
		return fmt.Errorf("required_observation_count must be positive")
	case cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1:
		return fmt.Errorf("confidence_level %v outside (0,1)", cfg.ConfidenceLevel)
	case cfg.Alpha <= 0 || cfg.Alpha >= 1:
		return fmt.Errorf("alpha %v outside (0,1)", cfg.Alpha)
	case len(cfg.TrialStores) == 0:
		return fmt.Errorf("no trial stores")
	case len(cfg.SelectionMetrics) == 0 || len(cfg.EvaluationMetrics) == 0:
		return fmt.Errorf("selection and evaluation metrics are required")
	}
	return nil
}

// flatten splits an errors.Join result back into its parts.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
