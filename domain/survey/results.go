package survey

// ConfidenceInterval is a two-sided interval around the mean
type ConfidenceInterval struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Summary is the descriptive profile of one numeric variable.
// Variance and StandardDeviation use the n-1 divisor and are 0 when Count is 1.
type Summary struct {
	Count              int                `json:"count"`
	Mean               float64            `json:"mean"`
	Median             float64            `json:"median"`
	Mode               float64            `json:"mode"`
	ModeFrequency      int                `json:"mode_frequency"`
	Variance           float64            `json:"variance"`
	StandardDeviation  float64            `json:"standard_deviation"`
	Min                float64            `json:"min"`
	Max                float64            `json:"max"`
	Range              float64            `json:"range"`
	InterquartileRange float64            `json:"interquartile_range"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	Percentiles        map[int]float64    `json:"percentiles"`
	Skewness           float64            `json:"skewness"`
	Kurtosis           float64            `json:"kurtosis"`
}

// Significance is the coarse tier attached to a correlation p-value
type Significance string

const (
	VerySignificant       Significance = "very significant"
	Significant           Significance = "significant"
	ModeratelySignificant Significance = "moderately significant"
	NotSignificant        Significance = "not significant"
)

// CorrelationResult is the Pearson association between two numeric variables.
// PValue is the normal approximation that drives Significance; ReferencePValue is the
// Student-t value reported alongside for comparison.
type CorrelationResult struct {
	VariableA       string       `json:"variable_a"`
	VariableB       string       `json:"variable_b"`
	N               int          `json:"n"`
	Coefficient     float64      `json:"coefficient"`
	PValue          float64      `json:"p_value"`
	ReferencePValue float64      `json:"reference_p_value"`
	Significance    Significance `json:"significance"`
}

// GroupStat is one category's slice of the numeric variable in an ANOVA
type GroupStat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// MeanDifference is one row of the post-hoc table
type MeanDifference struct {
	GroupA     string  `json:"group_a"`
	GroupB     string  `json:"group_b"`
	Difference float64 `json:"difference"`
}

// ANOVAResult is a one-way analysis of variance of a numeric variable across the
// groups of a categorical variable.
type ANOVAResult struct {
	NumericVariable     string           `json:"numeric_variable"`
	CategoricalVariable string           `json:"categorical_variable"`
	FStatistic          float64          `json:"f_statistic"`
	PValue              float64          `json:"p_value"`
	ReferencePValue     float64          `json:"reference_p_value"`
	DFBetween           int              `json:"df_between"`
	DFWithin            int              `json:"df_within"`
	SSBetween           float64          `json:"ss_between"`
	SSWithin            float64          `json:"ss_within"`
	EtaSquared          float64          `json:"eta_squared"`
	GrandMean           float64          `json:"grand_mean"`
	Groups              []GroupStat      `json:"groups"`
	PairwiseDifferences []MeanDifference `json:"pairwise_differences"`
}

// GroupMeans returns the per-group means keyed by group name
func (r ANOVAResult) GroupMeans() map[string]float64 {
	out := make(map[string]float64, len(r.Groups))
	for _, g := range r.Groups {
		out[g.Name] = g.Mean
	}
	return out
}

// ANOVAKey is the report key for a numeric-by-categorical ANOVA
func ANOVAKey(numeric, categorical string) string {
	return numeric + "_by_" + categorical
}

// Partition is the outcome of one k-means run.
// Assignments maps point index to cluster; Clusters lists point indices per cluster.
type Partition struct {
	K           int         `json:"k"`
	Centroids   [][]float64 `json:"centroids"`
	Assignments []int       `json:"assignments"`
	Clusters    [][]int     `json:"clusters"`
	Iterations  int         `json:"iterations"`
	Silhouette  float64     `json:"silhouette"`
	Converged   bool        `json:"converged"`
	Inertia     float64     `json:"inertia"`
}

// Sizes returns the number of points in each cluster
func (p Partition) Sizes() []int {
	out := make([]int, len(p.Clusters))
	for i, c := range p.Clusters {
		out[i] = len(c)
	}
	return out
}
