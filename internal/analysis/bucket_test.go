package analysis

import (
	"math"
	"testing"
)

func sampleRows() []Row {
	// 8 rows, 6 correct; sentence_length spans 2..10.
	rows := []Row{
		{ID: "0", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"sentence_length": 2}},
		{ID: "1", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"sentence_length": 3}},
		{ID: "2", TrueLabel: "neg", Prediction: "pos", Features: map[string]float64{"sentence_length": 4}},
		{ID: "3", TrueLabel: "neg", Prediction: "neg", Features: map[string]float64{"sentence_length": 5}},
		{ID: "4", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"sentence_length": 6}},
		{ID: "5", TrueLabel: "neg", Prediction: "neg", Features: map[string]float64{"sentence_length": 8}},
		{ID: "6", TrueLabel: "pos", Prediction: "neg", Features: map[string]float64{"sentence_length": 9}},
		{ID: "7", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"sentence_length": 10}},
	}
	return rows
}

func TestDecodeRows(t *testing.T) {
	payload := []byte(`[
		{"id": "a", "true_label": "pos", "predicted_label": "neg", "sentence_length": 4.5},
		{"true_label": "neg", "predicted_label": "neg", "sentence_length": 2}
	]`)

	rows, err := DecodeRows(payload, []string{"sentence_length"})
	if err != nil {
		t.Fatalf("DecodeRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != "a" || rows[1].ID != "1" {
		t.Errorf("unexpected ids: %q, %q", rows[0].ID, rows[1].ID)
	}
	if rows[0].Features["sentence_length"] != 4.5 {
		t.Errorf("feature not decoded: %v", rows[0].Features)
	}
}

func TestDecodeRowsRejectsNonNumericFeature(t *testing.T) {
	payload := []byte(`[{"true_label": "a", "predicted_label": "a", "sentence_length": "long"}]`)
	if _, err := DecodeRows(payload, []string{"sentence_length"}); err == nil {
		t.Fatal("expected an error for a non-numeric feature")
	}
}

func TestDecodeRowsRejectsNonArray(t *testing.T) {
	if _, err := DecodeRows([]byte(`{"not": "an array"}`), nil); err == nil {
		t.Fatal("expected an error for a non-array payload")
	}
}

func TestAnalyzeOverall(t *testing.T) {
	report, err := Analyze("sys-1", sampleRows(), []string{MetricAccuracy}, []string{"sentence_length"}, 4)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	overall, ok := report.Overall[MetricAccuracy]
	if !ok {
		t.Fatal("missing overall Accuracy")
	}
	if !almostEqual(overall.Value, 0.75) {
		t.Errorf("overall accuracy: got %v, want 0.75", overall.Value)
	}
	if overall.ConfidenceScoreLow >= overall.Value || overall.ConfidenceScoreHigh <= overall.Value {
		t.Errorf("confidence interval does not bracket the value: [%v, %v]",
			overall.ConfidenceScoreLow, overall.ConfidenceScoreHigh)
	}
	if overall.ConfidenceScoreLow < 0 || overall.ConfidenceScoreHigh > 1 {
		t.Errorf("confidence interval not clamped to [0,1]: [%v, %v]",
			overall.ConfidenceScoreLow, overall.ConfidenceScoreHigh)
	}
}

func TestAnalyzeBucketsCoverAllRows(t *testing.T) {
	rows := sampleRows()
	report, err := Analyze("sys-1", rows, []string{MetricAccuracy}, []string{"sentence_length"}, 4)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	buckets := report.Features["sentence_length"]
	if len(buckets) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(buckets))
	}
	total := 0
	for _, bucket := range buckets {
		total += bucket.NSamples
		if len(bucket.BucketSamples) != bucket.NSamples {
			t.Errorf("sample id count %d disagrees with n_samples %d",
				len(bucket.BucketSamples), bucket.NSamples)
		}
		if len(bucket.BucketName) != 2 {
			t.Errorf("interval bucket should have two boundaries, got %v", bucket.BucketName)
		}
	}
	if total != len(rows) {
		t.Errorf("bucket sample counts sum to %d, want %d", total, len(rows))
	}
}

func TestAnalyzeBucketsCoverFloatEdge(t *testing.T) {
	// lo=0.01 hi=0.16: lo+4*width lands just below hi in float64, so the
	// max row must not fall out of the last bucket.
	rows := []Row{
		{ID: "0", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"confidence": 0.01}},
		{ID: "1", TrueLabel: "pos", Prediction: "pos", Features: map[string]float64{"confidence": 0.05}},
		{ID: "2", TrueLabel: "neg", Prediction: "pos", Features: map[string]float64{"confidence": 0.09}},
		{ID: "3", TrueLabel: "neg", Prediction: "neg", Features: map[string]float64{"confidence": 0.16}},
	}
	report, err := Analyze("sys-1", rows, []string{MetricAccuracy}, []string{"confidence"}, 4)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	buckets := report.Features["confidence"]
	total := 0
	for _, bucket := range buckets {
		total += bucket.NSamples
	}
	if total != len(rows) {
		t.Fatalf("bucket sample counts sum to %d, want %d", total, len(rows))
	}
	last := buckets[len(buckets)-1]
	if !contains(last.BucketSamples, "3") {
		t.Errorf("max row missing from the last bucket: %v", last.BucketSamples)
	}
}

func TestAnalyzeWithCustomBuckets(t *testing.T) {
	rows := sampleRows()

	custom := map[string]BucketInfo{
		"sentence_length": {Setting: [][]float64{{2, 5}, {6, 10}}},
	}
	report, err := AnalyzeWithBuckets("sys-1", rows, []string{MetricAccuracy}, []string{"sentence_length"}, 4, custom)
	if err != nil {
		t.Fatalf("AnalyzeWithBuckets failed: %v", err)
	}
	buckets := report.Features["sentence_length"]
	if len(buckets) != 2 {
		t.Fatalf("expected 2 custom buckets, got %d", len(buckets))
	}
	if buckets[0].NSamples != 4 || buckets[1].NSamples != 4 {
		t.Errorf("unexpected custom bucket sizes: %d, %d", buckets[0].NSamples, buckets[1].NSamples)
	}

	custom = map[string]BucketInfo{"sentence_length": {Number: 2}}
	report, err = AnalyzeWithBuckets("sys-1", rows, []string{MetricAccuracy}, []string{"sentence_length"}, 4, custom)
	if err != nil {
		t.Fatalf("AnalyzeWithBuckets failed: %v", err)
	}
	if got := len(report.Features["sentence_length"]); got != 2 {
		t.Errorf("bucket count override ignored: got %d buckets", got)
	}
}

func contains(samples []string, id string) bool {
	for _, sample := range samples {
		if sample == id {
			return true
		}
	}
	return false
}

func TestAnalyzeLabelBuckets(t *testing.T) {
	report, err := Analyze("sys-1", sampleRows(), []string{MetricAccuracy, MetricF1}, nil, 4)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	buckets := report.Features["true_label"]
	if len(buckets) != 2 {
		t.Fatalf("expected one bucket per label, got %d", len(buckets))
	}
	// sorted label order
	if buckets[0].BucketName[0] != "neg" || buckets[1].BucketName[0] != "pos" {
		t.Errorf("unexpected label bucket order: %v, %v", buckets[0].BucketName, buckets[1].BucketName)
	}
	if buckets[0].NSamples != 3 || buckets[1].NSamples != 5 {
		t.Errorf("unexpected label bucket sizes: %d, %d", buckets[0].NSamples, buckets[1].NSamples)
	}
	for _, bucket := range buckets {
		if len(bucket.Performances) != 2 {
			t.Errorf("expected a performance per metric, got %d", len(bucket.Performances))
		}
	}
}

func TestAnalyzeRejectsUnknownMetric(t *testing.T) {
	if _, err := Analyze("sys-1", sampleRows(), []string{"BLEU"}, nil, 4); err == nil {
		t.Fatal("expected an error for an unsupported metric")
	}
}

func TestAnalyzeRejectsEmptyOutput(t *testing.T) {
	if _, err := Analyze("sys-1", nil, []string{MetricAccuracy}, nil, 4); err == nil {
		t.Fatal("expected an error for an empty output")
	}
}

func TestMacroF1(t *testing.T) {
	rows := []Row{
		{TrueLabel: "a", Prediction: "a"},
		{TrueLabel: "a", Prediction: "b"},
		{TrueLabel: "b", Prediction: "b"},
		{TrueLabel: "b", Prediction: "b"},
	}
	// label a: tp=1 fp=0 fn=1 -> f1 = 2/3
	// label b: tp=2 fp=1 fn=0 -> f1 = 0.8
	want := (2.0/3.0 + 0.8) / 2
	if got := macroF1(rows); math.Abs(got-want) > 1e-9 {
		t.Errorf("macro F1: got %v, want %v", got, want)
	}
}

func TestConfidenceIntervalZeroSamples(t *testing.T) {
	low, high := confidenceInterval(0.5, 0)
	if low != 0 || high != 0 {
		t.Errorf("expected a degenerate interval for n=0, got [%v, %v]", low, high)
	}
}
