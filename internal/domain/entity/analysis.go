package entity

// Performance is one metric's score over a sample set, with a
// normal-approximation confidence interval.
type Performance struct {
	MetricName          string  `json:"metric_name"`
	Value               float64 `json:"value"`
	ConfidenceScoreLow  float64 `json:"confidence_score_low"`
	ConfidenceScoreHigh float64 `json:"confidence_score_high"`
}

// BucketPerformance aggregates performance over one sub-range of a feature's
// value domain. BucketName holds one boundary for discrete buckets and two
// for interval buckets. The bucket set for a feature is fixed by the analyzer;
// readers reorder and relabel but never recompute statistics.
type BucketPerformance struct {
	BucketName    []string      `json:"bucket_name"`
	NSamples      int           `json:"n_samples"`
	BucketSamples []string      `json:"bucket_samples"`
	Performances  []Performance `json:"performances"`
}

// AnalysisReport is the stored output of one analyzer run: overall scores per
// metric plus per-feature bucket breakdowns.
type AnalysisReport struct {
	SystemID string                         `json:"system_id"`
	Overall  map[string]Performance         `json:"overall"`
	Features map[string][]BucketPerformance `json:"features"`
}
