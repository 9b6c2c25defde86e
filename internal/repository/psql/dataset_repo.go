package psql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type GormDatasetRepo struct {
	db *gorm.DB
}

func NewGormDatasetRepo(db *gorm.DB) *GormDatasetRepo {
	return &GormDatasetRepo{db: db}
}

func (r *GormDatasetRepo) GetDataset(ctx context.Context, datasetID string) (*entity.Dataset, error) {
	dataset := &entity.Dataset{}
	if err := r.db.WithContext(ctx).First(dataset, "dataset_id = ?", datasetID).Error; err != nil {
		return nil, fmt.Errorf("dataset not found: %w", err)
	}
	return dataset, nil
}

func (r *GormDatasetRepo) FindDatasets(ctx context.Context, ids []string, name, task string, page, pageSize int) (*entity.DatasetsReturn, error) {
	tx := r.db.WithContext(ctx).Model(&entity.Dataset{})
	if len(ids) > 0 {
		tx = tx.Where("dataset_id IN ?", ids)
	}
	if name != "" {
		tx = tx.Where("name = ?", name)
	}
	if task != "" {
		tx = tx.Where("task = ?", task)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}

	tx = tx.Order("name ASC, sub_dataset ASC, split ASC")
	if pageSize > 0 {
		tx = tx.Offset(page * pageSize).Limit(pageSize)
	}

	var datasets []entity.Dataset
	if err := tx.Find(&datasets).Error; err != nil {
		return nil, fmt.Errorf("find datasets: %w", err)
	}
	return &entity.DatasetsReturn{Datasets: datasets, Total: total}, nil
}
