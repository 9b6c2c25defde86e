package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Dataset is reference metadata about a dataset systems can be evaluated on.
type Dataset struct {
	DatasetID  string         `gorm:"primaryKey;type:uuid" json:"dataset_id"`
	Name       string         `gorm:"not null;index" json:"dataset_name"`
	SubDataset string         `json:"sub_dataset"`
	Split      string         `json:"split"`
	Task       string         `gorm:"index" json:"task"`
	Languages  datatypes.JSON `json:"languages"`
	NumSamples int            `json:"num_samples"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DatasetsReturn pairs one page of datasets with the unfiltered total.
type DatasetsReturn struct {
	Datasets []Dataset `json:"datasets"`
	Total    int64     `json:"total"`
}
