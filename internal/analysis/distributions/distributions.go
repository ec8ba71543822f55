// Package distributions holds the probability helpers used to attach significance to
// correlation and ANOVA results.
//
// The reported p-values are deliberately approximate: correlation uses a normal
// stand-in for Student's t and ANOVA uses a closed-form monotonic transform of F.
// Significance tiers are derived from these values, so changing them changes what
// users see. The Reference* functions compute the exact distributions with gonum
// and are reported next to the approximations for comparison only.
package distributions

import (
	"math"

	"github.com/potencialpi/sentiment-cx/domain/survey"

	"gonum.org/v1/gonum/stat/distuv"
)

// Abramowitz & Stegun 7.1.26, |error| <= 1.5e-7
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// ErfTolerance is the documented maximum absolute error of Erf
const ErfTolerance = 1.5e-7

// Erf approximates the error function with the five-term Abramowitz-Stegun polynomial.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1.0 / (1.0 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	return sign * (1.0 - poly*math.Exp(-x*x))
}

// NormalCDF is the standard normal CDF built on Erf
func NormalCDF(z float64) float64 {
	return 0.5 * (1.0 + Erf(z/math.Sqrt2))
}

// TwoTailedNormalPValue returns 2*(1-Phi(|z|)) clamped to [0,1]
func TwoTailedNormalPValue(z float64) float64 {
	if math.IsInf(z, 0) {
		return 0
	}
	return clampProbability(2.0 * (1.0 - NormalCDF(math.Abs(z))))
}

// CorrelationTStatistic converts r to t = r*sqrt((n-2)/(1-r^2)).
// |r| = 1 yields ±Inf.
func CorrelationTStatistic(r float64, n int) float64 {
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		return math.Copysign(math.Inf(1), r)
	}
	return r * math.Sqrt(df/denom)
}

// CorrelationPValue is the approximate two-tailed p-value for a Pearson coefficient
// over n pairs: the t statistic read off the normal CDF.
func CorrelationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	return TwoTailedNormalPValue(CorrelationTStatistic(r, n))
}

// ReferenceCorrelationPValue is the exact Student-t two-tailed p-value with n-2 df
func ReferenceCorrelationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	t := CorrelationTStatistic(r, n)
	if math.IsInf(t, 0) {
		return 0
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return clampProbability(2 * (1 - tDist.CDF(math.Abs(t))))
}

// ANOVAPValue is the simplified F transform dfWithin / (dfWithin + dfBetween*F).
// It equals 1 at F = 0 and decreases monotonically towards 0 as F grows.
func ANOVAPValue(f float64, dfBetween, dfWithin int) float64 {
	if dfBetween <= 0 || dfWithin <= 0 || f <= 0 || math.IsNaN(f) {
		return 1.0
	}
	if math.IsInf(f, 1) {
		return 0
	}
	dw := float64(dfWithin)
	return clampProbability(dw / (dw + float64(dfBetween)*f))
}

// ReferenceFPValue is the exact upper-tail probability of the F distribution
func ReferenceFPValue(f float64, dfBetween, dfWithin int) float64 {
	if dfBetween <= 0 || dfWithin <= 0 || f <= 0 || math.IsNaN(f) {
		return 1.0
	}
	fDist := distuv.F{D1: float64(dfBetween), D2: float64(dfWithin)}
	return clampProbability(1 - fDist.CDF(f))
}

// Tier maps a p-value onto the significance labels shown to users
func Tier(p float64) survey.Significance {
	switch {
	case p < 0.001:
		return survey.VerySignificant
	case p < 0.01:
		return survey.Significant
	case p < 0.05:
		return survey.ModeratelySignificant
	default:
		return survey.NotSignificant
	}
}

func clampProbability(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
