package significance

import (
	"fmt"
	"math"

	"chips-trial/pkg/models"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TTest runs a two-sided two-sample t-test of a against b. With equalVar the
// pooled-variance Student test is used, otherwise Welch's test with
// Welch-Satterthwaite degrees of freedom.
func TTest(name string, a, b []float64, equalVar bool, alpha float64) (models.TTestResult, error) {
	res := models.TTestResult{Name: name, EqualVariance: equalVar}
	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return res, fmt.Errorf("%s: samples of %d and %d: %w", name, len(a), len(b), models.ErrDegenerateSample)
	}

	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)

	var se float64
	if equalVar {
		res.DF = na + nb - 2
		pooled := ((na-1)*va + (nb-1)*vb) / res.DF
		se = math.Sqrt(pooled * (1/na + 1/nb))
	} else {
		qa, qb := va/na, vb/nb
		se = math.Sqrt(qa + qb)
		if qa+qb > 0 {
			res.DF = (qa + qb) * (qa + qb) / (qa*qa/(na-1) + qb*qb/(nb-1))
		}
	}
	if se == 0 || math.IsNaN(se) {
		return res, fmt.Errorf("%s: zero variance: %w", name, models.ErrDegenerateSample)
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.TStatistic = (ma - mb) / se
	res.PValue = 2 * dist.Survival(math.Abs(res.TStatistic))
	res.CriticalT = dist.Quantile(1 - alpha/2)
	res.RejectNull = res.PValue < alpha
	return res, nil
}

// CriticalT is the one-sided critical t-value at confidence with df degrees of freedom.
func CriticalT(confidence float64, df int) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}.Quantile(confidence)
}

// MonthVerdict scores one trial month's percentage difference against the
// pre-trial mean and standard deviation. The p-value is one-sided (upper tail).
func MonthVerdict(pct, mean, stdev float64, df int, confidence float64) (tScore, pValue, critical float64, significant bool, err error) {
	if df < 1 {
		return 0, 0, 0, false, fmt.Errorf("df=%d: %w", df, models.ErrDegenerateSample)
	}
	if stdev == 0 || math.IsNaN(stdev) {
		return 0, 0, 0, false, fmt.Errorf("pre-trial stdev is 0: %w", models.ErrDegenerateSample)
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	tScore = (pct - mean) / stdev
	pValue = dist.Survival(tScore)
	critical = dist.Quantile(confidence)
	return tScore, pValue, critical, tScore > critical, nil
}
