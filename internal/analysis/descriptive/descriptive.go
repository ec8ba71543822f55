// Package descriptive computes central tendency, dispersion and shape statistics
// for a numeric survey variable.
package descriptive

import (
	"math"
	"sort"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ConfidenceZ is the normal critical value behind the reported 95% interval.
// A t critical value would be more accurate for small n; the interval is descriptive.
const (
	ConfidenceLevel = 0.95
	ConfidenceZ     = 1.96
)

// DefaultPercentiles are the percentiles reported in every Summary
var DefaultPercentiles = []int{5, 10, 25, 50, 75, 90, 95}

// Describe summarizes values with DefaultPercentiles.
// An empty input returns a zero Summary and core.ErrInsufficientData.
func Describe(values []float64) (survey.Summary, error) {
	return DescribeWithPercentiles(values, DefaultPercentiles)
}

// DescribeWithPercentiles summarizes values and reports the requested percentiles
// (each in [0,100]). The input slice is not modified.
func DescribeWithPercentiles(values []float64, percentiles []int) (survey.Summary, error) {
	n := len(values)
	if n == 0 {
		return survey.Summary{}, core.NewInsufficientDataError("descriptive statistics", 1, 0)
	}

	data := stats.Float64Data(values)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)

	variance := 0.0
	if n > 1 {
		variance = stat.Variance(values, nil)
	}
	stdDev := math.Sqrt(variance)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mode, modeFreq := Mode(values)

	summary := survey.Summary{
		Count:             n,
		Mean:              mean,
		Median:            median,
		Mode:              mode,
		ModeFrequency:     modeFreq,
		Variance:          variance,
		StandardDeviation: stdDev,
		Min:               min,
		Max:               max,
		Range:             max - min,
		Percentiles:       make(map[int]float64, len(percentiles)),
	}

	for _, p := range percentiles {
		summary.Percentiles[p] = Percentile(sorted, float64(p))
	}
	summary.InterquartileRange = Percentile(sorted, 75) - Percentile(sorted, 25)

	margin := ConfidenceZ * stdDev / math.Sqrt(float64(n))
	summary.ConfidenceInterval = survey.ConfidenceInterval{
		Level: ConfidenceLevel,
		Lower: mean - margin,
		Upper: mean + margin,
	}

	summary.Skewness, summary.Kurtosis = Moments(values, mean, stdDev)

	return summary, nil
}

// Percentile reads the p-th percentile (p in [0,100]) from an ascending slice by
// linear interpolation between the order statistics around index p/100*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	idx := p / 100 * float64(n-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}

	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Mode returns the most frequent value and its frequency. On a tie the winner is the
// value whose running count reaches the maximum first when scanning in input order.
func Mode(values []float64) (float64, int) {
	if len(values) == 0 {
		return 0, 0
	}

	freq := make(map[float64]int, len(values))
	maxFreq := 0
	for _, v := range values {
		freq[v]++
		if freq[v] > maxFreq {
			maxFreq = freq[v]
		}
	}

	running := make(map[float64]int, len(freq))
	for _, v := range values {
		running[v]++
		if running[v] == maxFreq {
			return v, maxFreq
		}
	}
	return values[0], maxFreq
}

// Moments returns the moment skewness mean(z^3) and excess kurtosis mean(z^4)-3,
// with z standardized by stdDev. Both are 0 when stdDev is 0.
func Moments(values []float64, mean, stdDev float64) (skewness, kurtosis float64) {
	if len(values) == 0 || stdDev == 0 || math.IsNaN(stdDev) {
		return 0, 0
	}

	var sum3, sum4 float64
	for _, x := range values {
		z := (x - mean) / stdDev
		z2 := z * z
		sum3 += z2 * z
		sum4 += z2 * z2
	}

	n := float64(len(values))
	return sum3 / n, sum4/n - 3
}

// DescribeAll summarizes every numeric variable, skipping empty ones
func DescribeAll(vars []survey.Variable) map[string]survey.Summary {
	out := make(map[string]survey.Summary)
	for _, v := range vars {
		if !v.IsNumeric() {
			continue
		}
		summary, err := Describe(v.Values)
		if err != nil {
			continue
		}
		out[v.Name] = summary
	}
	return out
}
