package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SystemStatus string

const (
	StatusPending   SystemStatus = "PENDING"
	StatusAnalyzing SystemStatus = "ANALYZING"
	StatusCompleted SystemStatus = "COMPLETED"
	StatusFailed    SystemStatus = "FAILED"
)

// System is one submitted set of model outputs evaluated against a dataset.
// Records are immutable after creation; only Status, AnalysisKey and Overall
// are written later, by the analyzer worker.
type System struct {
	SystemID    string `gorm:"primaryKey;type:uuid" json:"system_id"`
	SystemName  string `gorm:"not null;index" json:"system_name"`
	Task        string `gorm:"not null;index" json:"task"`
	DatasetName string `gorm:"index" json:"dataset_name"`
	SubDataset  string `json:"sub_dataset"`
	Split       string `json:"dataset_split"`

	Creator     string         `gorm:"type:uuid;index" json:"creator"`
	SharedUsers datatypes.JSON `json:"shared_users"`
	IsPrivate   bool           `json:"is_private"`

	Metrics   datatypes.JSON `json:"metrics"`
	OutputKey string         `gorm:"not null" json:"-"`

	Status      SystemStatus   `gorm:"not null;type:text" json:"status"`
	AnalysisKey string         `json:"-"`
	Overall     datatypes.JSON `json:"overall"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SystemCreatedMessage is the payload published to the analyzer queue.
type SystemCreatedMessage struct {
	SystemID  string   `json:"system_id"`
	Task      string   `json:"task"`
	OutputKey string   `json:"output_key"`
	Metrics   []string `json:"metrics"`
	Features  []string `json:"features"`
}

// SystemsReturn pairs one page of systems with the unfiltered total.
type SystemsReturn struct {
	Systems []System `json:"systems"`
	Total   int64    `json:"total"`
}

// SystemQuery selects and orders systems for listing. Page is zero-based and
// PageSize 0 disables paging. SortField is either "created_at" or a metric
// name, resolved against the overall results.
type SystemQuery struct {
	SystemIDs     []string
	SystemName    string
	Task          string
	DatasetName   string
	SubDataset    string
	Split         string
	Creator       string
	SharedUser    string
	Page          int
	PageSize      int
	SortField     string
	SortAscending bool
}
