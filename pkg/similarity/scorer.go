// Package similarity ranks candidate control stores against a trial store
// using a weighted blend of Pearson correlation and min-max normalised
// magnitude distance over the pre-trial months.
package similarity

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"chips-trial/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// Weights blends correlation and magnitude distance. They must sum to 1.
type Weights struct {
	Corr float64
	Dist float64
}

// DefaultWeights gives correlation and magnitude distance equal weight.
var DefaultWeights = Weights{Corr: 0.5, Dist: 0.5}

// NewWeights derives the distance weight from the correlation weight.
func NewWeights(corr float64) (Weights, error) {
	if corr < 0 || corr > 1 || math.IsNaN(corr) {
		return Weights{}, fmt.Errorf("corr_weight %v outside [0,1]", corr)
	}
	return Weights{Corr: corr, Dist: 1 - corr}, nil
}

// Scorer scores candidates for one metric at a time.
type Scorer struct {
	Weights Weights
	Verbose bool
}

// NewScorer returns a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w}
}

// Ranking is the scored candidate pool of one trial store for one metric.
type Ranking struct {
	Metric  models.Metric
	Monthly []models.SimilarityScore
	Ranked  []models.CompositeScore
	// Skipped holds one EntityError per candidate left out of the ranking.
	Skipped []error
}

type pairedSeries struct {
	control int
	months  []models.YearMonth
	trial   []float64
	other   []float64
	corr    float64
}

// ScoreMetric ranks candidates against trialStore on metric m over the
// pre-trial table. The trial store is never scored against itself.
func (s *Scorer) ScoreMetric(pre models.MetricTable, trialStore int, candidates []int, m models.Metric) (Ranking, error) {
	out := Ranking{Metric: m}

	trialSeries := pre.Series(trialStore, m)
	if len(trialSeries) == 0 {
		return out, &models.EntityError{
			Stage: "similarity", TrialStore: trialStore, Metric: m,
			Err: fmt.Errorf("no pre-trial observations: %w", models.ErrInsufficientHistory),
		}
	}
	trialByMonth := make(map[models.YearMonth]float64, len(trialSeries))
	for _, p := range trialSeries {
		trialByMonth[p.Month] = p.Value
	}

	var pairs []pairedSeries
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, c := range candidates {
		if c == trialStore {
			continue
		}
		pair := pairedSeries{control: c}
		for _, p := range pre.Series(c, m) {
			tv, ok := trialByMonth[p.Month]
			if !ok {
				continue
			}
			pair.months = append(pair.months, p.Month)
			pair.trial = append(pair.trial, tv)
			pair.other = append(pair.other, p.Value)
		}
		if err := checkCorrelation(pair.trial, pair.other); err != nil {
			skip := &models.EntityError{Stage: "similarity", TrialStore: trialStore, ControlStore: c, Metric: m, Err: err}
			out.Skipped = append(out.Skipped, skip)
			log.Printf("[WARN] skipped candidate: %v", skip)
			continue
		}
		pair.corr = stat.Correlation(pair.trial, pair.other, nil)
		for i := range pair.months {
			d := math.Abs(pair.trial[i] - pair.other[i])
			minDiff = math.Min(minDiff, d)
			maxDiff = math.Max(maxDiff, d)
		}
		pairs = append(pairs, pair)
	}

	for _, pair := range pairs {
		magSum, compSum := 0.0, 0.0
		for i, ym := range pair.months {
			mag := magnitude(math.Abs(pair.trial[i]-pair.other[i]), minDiff, maxDiff)
			magSum += mag
			compSum += s.Weights.Corr*pair.corr + s.Weights.Dist*mag
			out.Monthly = append(out.Monthly, models.SimilarityScore{
				TrialStore:        trialStore,
				ControlStore:      pair.control,
				Metric:            m,
				Month:             ym,
				Correlation:       pair.corr,
				MagnitudeDistance: mag,
			})
		}
		n := float64(len(pair.months))
		out.Ranked = append(out.Ranked, models.CompositeScore{
			TrialStore:   trialStore,
			ControlStore: pair.control,
			Metric:       m,
			Correlation:  pair.corr,
			Magnitude:    magSum / n,
			Score:        compSum / n,
		})
	}
	sortScores(out.Ranked)

	if s.Verbose {
		log.Printf("[DEBUG] trial=%d metric=%s scored=%d skipped=%d", trialStore, m, len(out.Ranked), len(out.Skipped))
	}
	return out, nil
}

// checkCorrelation reports why Pearson correlation is undefined for x and y, if it is.
func checkCorrelation(x, y []float64) error {
	if len(x) < 2 {
		return fmt.Errorf("%d paired months: %w", len(x), models.ErrUndefinedCorrelation)
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return fmt.Errorf("constant series: %w", models.ErrUndefinedCorrelation)
	}
	return nil
}

// magnitude maps an absolute difference to [0,1], 1 being the closest
// candidate. A pool with no spread scores 1 everywhere.
func magnitude(d, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return 1 - (d-lo)/(hi-lo)
}

func sortScores(scores []models.CompositeScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ControlStore < scores[j].ControlStore
	})
}

// Selection is the control store chosen for one trial store.
type Selection struct {
	TrialStore   int
	ControlStore int
	Rankings     map[models.Metric]Ranking
	Combined     []models.CompositeScore
	Skipped      []error
}

// Select scores every metric independently, then averages each pair's
// composite scores across metrics and picks the best pair. Only candidates
// scored on every metric take part in the combined ranking.
func (s *Scorer) Select(pre models.MetricTable, trialStore int, candidates []int, metrics []models.Metric) (Selection, error) {
	sel := Selection{TrialStore: trialStore, Rankings: make(map[models.Metric]Ranking, len(metrics))}
	if len(metrics) == 0 {
		return sel, errors.New("no selection metrics")
	}

	type merged struct {
		corr, mag, score float64
		n                int
	}
	byPair := make(map[models.PairKey]*merged)

	for _, m := range metrics {
		r, err := s.ScoreMetric(pre, trialStore, candidates, m)
		if err != nil {
			return sel, err
		}
		sel.Rankings[m] = r
		sel.Skipped = append(sel.Skipped, r.Skipped...)
		for _, c := range r.Ranked {
			acc, ok := byPair[c.Key()]
			if !ok {
				acc = &merged{}
				byPair[c.Key()] = acc
			}
			acc.corr += c.Correlation
			acc.mag += c.Magnitude
			acc.score += c.Score
			acc.n++
		}
	}

	for key, acc := range byPair {
		if acc.n != len(metrics) {
			continue
		}
		n := float64(acc.n)
		sel.Combined = append(sel.Combined, models.CompositeScore{
			TrialStore:   key.TrialStore,
			ControlStore: key.ControlStore,
			Metric:       models.Combined,
			Correlation:  acc.corr / n,
			Magnitude:    acc.mag / n,
			Score:        acc.score / n,
		})
	}
	sortScores(sel.Combined)

	if len(sel.Combined) == 0 {
		return sel, &models.EntityError{Stage: "selection", TrialStore: trialStore, Err: models.ErrNoCandidate}
	}
	sel.ControlStore = sel.Combined[0].ControlStore
	return sel, nil
}

// Top returns at most n leading scores.
func Top(scores []models.CompositeScore, n int) []models.CompositeScore {
	if n <= 0 || n >= len(scores) {
		return scores
	}
	return scores[:n]
}
