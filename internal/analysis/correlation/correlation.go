// Package correlation computes pairwise Pearson correlation between numeric survey
// variables and flags approximate significance.
package correlation

import (
	"fmt"
	"math"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/analysis/distributions"
)

// MinPairs is the fewest joined observations a correlation is computed on
const MinPairs = 3

// Pearson computes the product-moment correlation of two equal-length series as a
// sum of products of deviations from the mean. It returns 0 when either series is constant.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n == 0 {
		return 0
	}
	// a constant series can still leave rounding residue in the deviations
	if constant(x) || constant(y) {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
		sumY2 += dy * dy
	}
	if sumX2 <= 0 || sumY2 <= 0 {
		return 0
	}

	r := sumXY / math.Sqrt(sumX2*sumY2)
	if math.IsNaN(r) {
		return 0
	}
	// rounding can push |r| a hair past 1
	return math.Max(-1, math.Min(1, r))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Join pairs two numeric variables by record ID, in a's record order
func Join(a, b survey.Variable) (x, y []float64) {
	byRecord := b.NumericByRecord()
	for i, id := range a.RecordIDs {
		if v, ok := byRecord[id]; ok {
			x = append(x, a.Values[i])
			y = append(y, v)
		}
	}
	return x, y
}

// Analyze correlates two numeric variables over the records that answered both.
func Analyze(a, b survey.Variable) (survey.CorrelationResult, error) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return survey.CorrelationResult{}, fmt.Errorf("%w: %s, %s", core.ErrNotNumeric, a.Name, b.Name)
	}

	x, y := Join(a, b)
	n := len(x)
	if n < MinPairs {
		return survey.CorrelationResult{}, core.NewInsufficientDataError(
			fmt.Sprintf("correlation %s/%s", a.Name, b.Name), MinPairs, n)
	}

	r := Pearson(x, y)
	p := distributions.CorrelationPValue(r, n)

	return survey.CorrelationResult{
		VariableA:       a.Name,
		VariableB:       b.Name,
		N:               n,
		Coefficient:     r,
		PValue:          p,
		ReferencePValue: distributions.ReferenceCorrelationPValue(r, n),
		Significance:    distributions.Tier(p),
	}, nil
}

// AnalyzeAll correlates every unordered pair of numeric variables, in input order.
// Pairs with too few shared records are left out.
func AnalyzeAll(vars []survey.Variable) []survey.CorrelationResult {
	numeric := make([]survey.Variable, 0, len(vars))
	for _, v := range vars {
		if v.IsNumeric() {
			numeric = append(numeric, v)
		}
	}

	results := make([]survey.CorrelationResult, 0)
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			result, err := Analyze(numeric[i], numeric[j])
			if err != nil {
				continue
			}
			results = append(results, result)
		}
	}
	return results
}
