// Package anova runs one-way analysis of variance of numeric survey variables across
// the groups of categorical ones.
package anova

import (
	"fmt"
	"math"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/analysis/distributions"

	"gonum.org/v1/gonum/stat"
)

// DefaultMaxGroups caps the categories a variable may have before it is treated as
// free text and left out of AnalyzeAll
const DefaultMaxGroups = 20

// MinGroups is the fewest non-empty groups a one-way ANOVA runs on
const MinGroups = 2

type group struct {
	name   string
	values []float64
}

// partition splits the numeric values by category, joined on record ID.
// Groups are ordered by the first appearance of their category.
func partition(numeric, categorical survey.Variable) []group {
	categoryOf := categorical.CategoryByRecord()
	index := make(map[string]int)
	var groups []group

	for i, id := range numeric.RecordIDs {
		cat, ok := categoryOf[id]
		if !ok {
			continue
		}
		gi, seen := index[cat]
		if !seen {
			gi = len(groups)
			index[cat] = gi
			groups = append(groups, group{name: cat})
		}
		groups[gi].values = append(groups[gi].values, numeric.Values[i])
	}
	return groups
}

// OneWay computes the one-way ANOVA of numeric split by categorical.
// F is 0 when the within-group mean square is 0 or has no degrees of freedom.
func OneWay(numeric, categorical survey.Variable) (survey.ANOVAResult, error) {
	if !numeric.IsNumeric() {
		return survey.ANOVAResult{}, fmt.Errorf("%w: %s", core.ErrNotNumeric, numeric.Name)
	}
	if !categorical.IsCategorical() {
		return survey.ANOVAResult{}, fmt.Errorf("%w: %s", core.ErrNotCategorical, categorical.Name)
	}

	groups := partition(numeric, categorical)
	if len(groups) < MinGroups {
		return survey.ANOVAResult{}, core.NewInsufficientDataError(
			fmt.Sprintf("anova %s", survey.ANOVAKey(numeric.Name, categorical.Name)), MinGroups, len(groups))
	}

	total := 0
	var grandSum float64
	for _, g := range groups {
		total += len(g.values)
		for _, v := range g.values {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	stats := make([]survey.GroupStat, len(groups))
	var ssBetween, ssWithin float64
	for i, g := range groups {
		mean := stat.Mean(g.values, nil)
		stats[i] = survey.GroupStat{Name: g.name, Count: len(g.values), Mean: mean}

		d := mean - grandMean
		ssBetween += float64(len(g.values)) * d * d
		for _, v := range g.values {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	dfBetween := len(groups) - 1
	dfWithin := total - len(groups)

	f := 0.0
	if dfWithin > 0 {
		msWithin := ssWithin / float64(dfWithin)
		if msWithin > 0 {
			f = (ssBetween / float64(dfBetween)) / msWithin
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}

	eta := 0.0
	if sst := ssBetween + ssWithin; sst > 0 {
		eta = ssBetween / sst
	}

	p := distributions.ANOVAPValue(f, dfBetween, dfWithin)
	return survey.ANOVAResult{
		NumericVariable:     numeric.Name,
		CategoricalVariable: categorical.Name,
		FStatistic:          f,
		PValue:              p,
		ReferencePValue:     distributions.ReferenceFPValue(f, dfBetween, dfWithin),
		DFBetween:           dfBetween,
		DFWithin:            dfWithin,
		SSBetween:           ssBetween,
		SSWithin:            ssWithin,
		EtaSquared:          eta,
		GrandMean:           grandMean,
		Groups:              stats,
		PairwiseDifferences: pairwise(stats),
	}, nil
}

// pairwise lists |meanA - meanB| for every group pair. No multiple-comparison correction.
func pairwise(groups []survey.GroupStat) []survey.MeanDifference {
	out := make([]survey.MeanDifference, 0, len(groups)*(len(groups)-1)/2)
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			out = append(out, survey.MeanDifference{
				GroupA:     groups[i].Name,
				GroupB:     groups[j].Name,
				Difference: math.Abs(groups[i].Mean - groups[j].Mean),
			})
		}
	}
	return out
}

// AnalyzeAll runs OneWay for every numeric/categorical pair. Categorical variables with
// more than maxGroups categories are skipped; maxGroups <= 0 means DefaultMaxGroups.
// Pairs without enough groups are left out of the map.
func AnalyzeAll(vars []survey.Variable, maxGroups int) map[string]survey.ANOVAResult {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}

	results := make(map[string]survey.ANOVAResult)
	for _, cat := range vars {
		if !cat.IsCategorical() || len(cat.CategoryOrder) > maxGroups {
			continue
		}
		for _, num := range vars {
			if !num.IsNumeric() {
				continue
			}
			result, err := OneWay(num, cat)
			if err != nil {
				continue
			}
			results[survey.ANOVAKey(num.Name, cat.Name)] = result
		}
	}
	return results
}
