package survey

import "github.com/potencialpi/sentiment-cx/domain/core"

// Report is the full output of one analysis pass. It is plain data and survives a
// JSON round trip unchanged.
type Report struct {
	AnalysisID       core.AnalysisID        `json:"analysis_id"`
	GeneratedAt      core.Timestamp         `json:"generated_at"`
	InputFingerprint core.Hash              `json:"input_fingerprint"`
	RecordCount      int                    `json:"record_count"`
	Seed             int64                  `json:"seed"`
	Variables        []VariableInfo         `json:"variables"`
	Summaries        map[string]Summary     `json:"summaries"`
	Correlations     []CorrelationResult    `json:"correlations"`
	ANOVA            map[string]ANOVAResult `json:"anova"`
	ClusterColumns   []string               `json:"cluster_columns"`
	ClusterRecordIDs []string               `json:"cluster_record_ids"`
	Clusters         []Partition            `json:"clusters"`
}

// PartitionForK returns the partition computed for k, if any
func (r *Report) PartitionForK(k int) (Partition, bool) {
	for _, p := range r.Clusters {
		if p.K == k {
			return p, true
		}
	}
	return Partition{}, false
}
