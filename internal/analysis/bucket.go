package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// Supported metric names.
const (
	MetricAccuracy = "Accuracy"
	MetricF1       = "F1"
)

// DefaultNumBuckets is the number of equal-width intervals per numeric feature.
const DefaultNumBuckets = 4

// zCritical is the 95% normal quantile used for confidence intervals.
const zCritical = 1.96

// Row is one decoded system output: a gold label, a prediction and any number
// of numeric feature values.
type Row struct {
	ID         string
	TrueLabel  string
	Prediction string
	Features   map[string]float64
}

// DecodeRows decodes an uploaded system output. The payload is a JSON array of
// objects carrying "true_label" and "predicted_label" plus the declared
// numeric feature fields. Missing ids default to the row index.
func DecodeRows(data []byte, features []string) ([]Row, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode system output: %w", err)
	}

	rows := make([]Row, 0, len(raw))
	for i, obj := range raw {
		row := Row{Features: make(map[string]float64)}
		if err := decodeString(obj, "id", &row.ID); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if row.ID == "" {
			row.ID = strconv.Itoa(i)
		}
		if err := decodeString(obj, "true_label", &row.TrueLabel); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := decodeString(obj, "predicted_label", &row.Prediction); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		for _, feature := range features {
			rawVal, ok := obj[feature]
			if !ok {
				continue
			}
			var v float64
			if err := json.Unmarshal(rawVal, &v); err != nil {
				return nil, fmt.Errorf("row %d: feature %q is not numeric: %w", i, feature, err)
			}
			row.Features[feature] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeString(obj map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

// BucketInfo overrides the bucketing of one feature: Number picks a different
// equal-width bucket count, Setting fixes the intervals outright. Setting wins
// when both are present.
type BucketInfo struct {
	Number  int         `json:"number"`
	Setting [][]float64 `json:"setting"`
}

// Analyze computes the full report for a system: overall scores per metric
// plus bucket breakdowns over every declared numeric feature and the gold
// label. The produced bucket set is fixed; downstream readers never recompute.
func Analyze(systemID string, rows []Row, metrics, features []string, numBuckets int) (*entity.AnalysisReport, error) {
	return AnalyzeWithBuckets(systemID, rows, metrics, features, numBuckets, nil)
}

// AnalyzeWithBuckets is Analyze with per-feature bucket overrides.
func AnalyzeWithBuckets(systemID string, rows []Row, metrics, features []string, numBuckets int, custom map[string]BucketInfo) (*entity.AnalysisReport, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("system %s: empty output", systemID)
	}
	if numBuckets <= 0 {
		numBuckets = DefaultNumBuckets
	}
	for _, metric := range metrics {
		if metric != MetricAccuracy && metric != MetricF1 {
			return nil, fmt.Errorf("unsupported metric: %s", metric)
		}
	}

	report := &entity.AnalysisReport{
		SystemID: systemID,
		Overall:  make(map[string]entity.Performance),
		Features: make(map[string][]entity.BucketPerformance),
	}
	for _, metric := range metrics {
		report.Overall[metric] = score(metric, rows)
	}
	for _, feature := range features {
		report.Features[feature] = bucketFeature(feature, rows, metrics, numBuckets, custom[feature])
	}
	report.Features["true_label"] = bucketByLabel(rows, metrics)
	return report, nil
}

func bucketFeature(feature string, rows []Row, metrics []string, numBuckets int, info BucketInfo) []entity.BucketPerformance {
	if len(info.Setting) > 0 {
		return bucketWithIntervals(feature, rows, metrics, info.Setting)
	}
	if info.Number > 0 {
		numBuckets = info.Number
	}
	return bucketNumeric(feature, rows, metrics, numBuckets)
}

// bucketNumeric slices a feature's observed range into equal-width intervals,
// the last one right-inclusive, and scores each interval's rows.
func bucketNumeric(feature string, rows []Row, metrics []string, numBuckets int) []entity.BucketPerformance {
	lo, hi := math.Inf(1), math.Inf(-1)
	scoped := make([]Row, 0, len(rows))
	for _, row := range rows {
		v, ok := row.Features[feature]
		if !ok {
			continue
		}
		scoped = append(scoped, row)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(scoped) == 0 {
		return nil
	}
	if lo == hi {
		hi = lo + 1
	}
	width := (hi - lo) / float64(numBuckets)

	buckets := make([]entity.BucketPerformance, 0, numBuckets)
	for i := 0; i < numBuckets; i++ {
		left := lo + float64(i)*width
		right := left + width
		if i == numBuckets-1 {
			// accumulated float error in lo+i*width can leave the last
			// edge below the observed max; pin it so the max row lands
			right = hi
		}
		var members []Row
		for _, row := range scoped {
			v := row.Features[feature]
			if v >= left && (v < right || (i == numBuckets-1 && v <= right)) {
				members = append(members, row)
			}
		}
		bucket := entity.BucketPerformance{
			BucketName: []string{formatBound(left), formatBound(right)},
			NSamples:   len(members),
		}
		for _, row := range members {
			bucket.BucketSamples = append(bucket.BucketSamples, row.ID)
		}
		for _, metric := range metrics {
			bucket.Performances = append(bucket.Performances, score(metric, members))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// bucketWithIntervals scores caller-chosen intervals, both edges inclusive.
// Malformed intervals are skipped; overlap is the caller's choice.
func bucketWithIntervals(feature string, rows []Row, metrics []string, intervals [][]float64) []entity.BucketPerformance {
	buckets := make([]entity.BucketPerformance, 0, len(intervals))
	for _, interval := range intervals {
		if len(interval) != 2 {
			continue
		}
		left, right := interval[0], interval[1]
		var members []Row
		for _, row := range rows {
			v, ok := row.Features[feature]
			if !ok {
				continue
			}
			if v >= left && v <= right {
				members = append(members, row)
			}
		}
		bucket := entity.BucketPerformance{
			BucketName: []string{formatBound(left), formatBound(right)},
			NSamples:   len(members),
		}
		for _, row := range members {
			bucket.BucketSamples = append(bucket.BucketSamples, row.ID)
		}
		for _, metric := range metrics {
			bucket.Performances = append(bucket.Performances, score(metric, members))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

// bucketByLabel emits one discrete bucket per gold label.
func bucketByLabel(rows []Row, metrics []string) []entity.BucketPerformance {
	byLabel := make(map[string][]Row)
	for _, row := range rows {
		byLabel[row.TrueLabel] = append(byLabel[row.TrueLabel], row)
	}
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	buckets := make([]entity.BucketPerformance, 0, len(labels))
	for _, label := range labels {
		members := byLabel[label]
		bucket := entity.BucketPerformance{
			BucketName: []string{label},
			NSamples:   len(members),
		}
		for _, row := range members {
			bucket.BucketSamples = append(bucket.BucketSamples, row.ID)
		}
		for _, metric := range metrics {
			bucket.Performances = append(bucket.Performances, score(metric, members))
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}

func score(metric string, rows []Row) entity.Performance {
	var value float64
	switch metric {
	case MetricF1:
		value = macroF1(rows)
	default:
		value = accuracy(rows)
	}
	low, high := confidenceInterval(value, len(rows))
	return entity.Performance{
		MetricName:          metric,
		Value:               value,
		ConfidenceScoreLow:  low,
		ConfidenceScoreHigh: high,
	}
}

func accuracy(rows []Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for _, row := range rows {
		if row.TrueLabel == row.Prediction {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

// macroF1 averages per-label F1 over all gold labels.
func macroF1(rows []Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	labels := make(map[string]bool)
	for _, row := range rows {
		labels[row.TrueLabel] = true
	}

	var sum float64
	for label := range labels {
		var tp, fp, fn float64
		for _, row := range rows {
			switch {
			case row.Prediction == label && row.TrueLabel == label:
				tp++
			case row.Prediction == label:
				fp++
			case row.TrueLabel == label:
				fn++
			}
		}
		if tp > 0 {
			precision := tp / (tp + fp)
			recall := tp / (tp + fn)
			sum += 2 * precision * recall / (precision + recall)
		}
	}
	return sum / float64(len(labels))
}

// confidenceInterval is the 95% normal approximation for a proportion,
// clamped to [0, 1].
func confidenceInterval(p float64, n int) (low, high float64) {
	if n == 0 {
		return 0, 0
	}
	margin := zCritical * math.Sqrt(p*(1-p)/float64(n))
	return math.Max(0, p-margin), math.Min(1, p+margin)
}

func formatBound(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
