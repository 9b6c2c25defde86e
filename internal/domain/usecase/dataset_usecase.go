package usecase

import (
	"context"
	"fmt"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type DatasetRepo interface {
	GetDataset(ctx context.Context, datasetID string) (*entity.Dataset, error)
	FindDatasets(ctx context.Context, ids []string, name, task string, page, pageSize int) (*entity.DatasetsReturn, error)
}

type DatasetUseCase struct {
	DatasetRepo DatasetRepo
}

func NewDatasetUseCase(repo DatasetRepo) *DatasetUseCase {
	return &DatasetUseCase{DatasetRepo: repo}
}

func (u *DatasetUseCase) Get(ctx context.Context, datasetID string) (*entity.Dataset, error) {
	dataset, err := u.DatasetRepo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("dataset id: %s not found", datasetID))
	}
	return dataset, nil
}

func (u *DatasetUseCase) List(ctx context.Context, ids []string, name, task string, page, pageSize int) (*entity.DatasetsReturn, error) {
	return u.DatasetRepo.FindDatasets(ctx, ids, name, task, page, pageSize)
}
