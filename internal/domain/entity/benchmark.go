package entity

import (
	"time"

	"gorm.io/datatypes"
)

// BenchmarkMetric names one metric contributing to a benchmark score.
type BenchmarkMetric struct {
	Name    string  `json:"name"`
	Weight  float64 `json:"weight"`
	Default float64 `json:"default"`
}

// BenchmarkDataset selects the systems that feed one benchmark column.
type BenchmarkDataset struct {
	DatasetName string            `json:"dataset_name"`
	SubDataset  string            `json:"sub_dataset,omitempty"`
	Split       string            `json:"dataset_split,omitempty"`
	Metrics     []BenchmarkMetric `json:"metrics,omitempty"`
}

// BenchmarkOperation is one step of a view aggregation pipeline.
// Op is one of "mean", "multiply" or "sum"; Other names the column a
// multiply reads its factor from.
type BenchmarkOperation struct {
	Op    string `json:"op"`
	Other string `json:"other,omitempty"`
}

// BenchmarkView is a named aggregation over the raw score table.
type BenchmarkView struct {
	Name       string               `json:"name"`
	Operations []BenchmarkOperation `json:"operations"`
}

// BenchmarkConfig declares which systems a benchmark ranks and how their
// scores are aggregated. Dataset-level metrics override the global list.
type BenchmarkConfig struct {
	BenchmarkID string             `json:"benchmark_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Datasets    []BenchmarkDataset `json:"datasets"`
	Metrics     []BenchmarkMetric  `json:"metrics"`
	Views       []BenchmarkView    `json:"views"`
}

// Benchmark is the stored form of a config.
type Benchmark struct {
	BenchmarkID string         `gorm:"primaryKey" json:"benchmark_id"`
	Config      datatypes.JSON `gorm:"not null" json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BenchmarkTable is a composed leaderboard: one row per system, one column
// per dataset/metric combination.
type BenchmarkTable struct {
	Name        string      `json:"name"`
	SystemNames []string    `json:"system_names"`
	ColumnNames []string    `json:"column_names"`
	Scores      [][]float64 `json:"scores"`
}

// BenchmarkReturn is a benchmark's config together with every composed view.
type BenchmarkReturn struct {
	Config BenchmarkConfig  `json:"config"`
	Views  []BenchmarkTable `json:"views"`
}
