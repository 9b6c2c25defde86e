package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// DefaultDecimalPlaces is used when a caller passes a non-positive precision.
const DefaultDecimalPlaces = 3

// FineGrained is one metric's bucket breakdown over one feature, reshaped for
// chart rendering: parallel arrays of labels, values, confidence intervals and
// sample counts, plus axis bounds. Derived on demand, never persisted.
type FineGrained struct {
	FeatureName      string      `json:"feature_name"`
	MetricName       string      `json:"metric_name"`
	BucketNames      []string    `json:"bucket_names"`
	BucketIntervals  [][]float64 `json:"bucket_intervals"`
	BucketMin        float64     `json:"bucket_min"`
	BucketMax        float64     `json:"bucket_max"`
	BucketStep       float64     `json:"bucket_step"`
	Values           []float64   `json:"values"`
	NumbersOfSamples []int       `json:"numbers_of_samples"`
	ConfidenceScores [][]float64 `json:"confidence_scores"`
	BucketsOfSamples [][]string  `json:"buckets_of_samples"`
}

// Parse reshapes a stored report into per-metric, per-feature fine-grained
// results. Buckets are sorted ascending by their first numeric boundary and
// statistics are only reordered and relabeled, never recomputed.
func Parse(report *entity.AnalysisReport, decimalPlaces int) map[string]map[string]*FineGrained {
	if decimalPlaces <= 0 {
		decimalPlaces = DefaultDecimalPlaces
	}
	parsed := make(map[string]map[string]*FineGrained)
	for featureName, buckets := range report.Features {
		sorted := make([]entity.BucketPerformance, len(buckets))
		copy(sorted, buckets)
		sortBuckets(sorted)

		for _, bucket := range sorted {
			for _, perf := range bucket.Performances {
				byFeature, ok := parsed[perf.MetricName]
				if !ok {
					byFeature = make(map[string]*FineGrained)
					parsed[perf.MetricName] = byFeature
				}
				fg, ok := byFeature[featureName]
				if !ok {
					fg = &FineGrained{
						FeatureName: featureName,
						MetricName:  perf.MetricName,
						BucketMin:   math.Inf(1),
						BucketMax:   math.Inf(-1),
						BucketStep:  1,
					}
					byFeature[featureName] = fg
				}

				value := roundTo(perf.Value, decimalPlaces)
				low := roundTo(perf.ConfidenceScoreLow, decimalPlaces)
				high := roundTo(perf.ConfidenceScoreHigh, decimalPlaces)

				if value < fg.BucketMin {
					fg.BucketMin = value
				}
				if value > fg.BucketMax {
					fg.BucketMax = value
				}
				if fg.BucketMax-fg.BucketMin <= 1 {
					fg.BucketStep = 0.01
				} else {
					fg.BucketStep = 1
				}

				fg.BucketNames = append(fg.BucketNames, formatBucketName(bucket.BucketName))
				fg.BucketIntervals = append(fg.BucketIntervals, bucketInterval(bucket.BucketName))
				fg.Values = append(fg.Values, value)
				fg.NumbersOfSamples = append(fg.NumbersOfSamples, bucket.NSamples)
				fg.ConfidenceScores = append(fg.ConfidenceScores, []float64{low, high})
				fg.BucketsOfSamples = append(fg.BucketsOfSamples, bucket.BucketSamples)
			}
		}
	}
	return parsed
}

// sortBuckets orders buckets ascending by their first boundary.
func sortBuckets(buckets []entity.BucketPerformance) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return firstBound(buckets[i]) < firstBound(buckets[j])
	})
}

func firstBound(bucket entity.BucketPerformance) float64 {
	if len(bucket.BucketName) == 0 {
		return 0
	}
	return parseFloat(bucket.BucketName[0])
}

// parseFloat swallows malformed numerics and falls back to 0.
// TODO surface parse failures to the caller instead of defaulting.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// formatBucketName renders a bucket's boundaries for a chart axis: a single
// boundary gets two trailing line breaks, two boundaries are joined with a
// pipe-delimited line break.
func formatBucketName(name []string) string {
	switch len(name) {
	case 1:
		return name[0] + "\n\n"
	case 2:
		return name[0] + "\n|\n" + name[1]
	default:
		return strings.Join(name, "\n|\n")
	}
}

func bucketInterval(name []string) []float64 {
	interval := make([]float64, len(name))
	for i, bound := range name {
		interval[i] = parseFloat(bound)
	}
	return interval
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
