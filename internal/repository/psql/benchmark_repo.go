package psql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type GormBenchmarkRepo struct {
	db *gorm.DB
}

func NewGormBenchmarkRepo(db *gorm.DB) *GormBenchmarkRepo {
	return &GormBenchmarkRepo{db: db}
}

func (r *GormBenchmarkRepo) GetBenchmark(ctx context.Context, benchmarkID string) (*entity.Benchmark, error) {
	benchmark := &entity.Benchmark{}
	if err := r.db.WithContext(ctx).First(benchmark, "benchmark_id = ?", benchmarkID).Error; err != nil {
		return nil, fmt.Errorf("benchmark not found: %w", err)
	}
	return benchmark, nil
}

func (r *GormBenchmarkRepo) ListBenchmarks(ctx context.Context) ([]entity.Benchmark, error) {
	var benchmarks []entity.Benchmark
	if err := r.db.WithContext(ctx).Order("benchmark_id ASC").Find(&benchmarks).Error; err != nil {
		return nil, fmt.Errorf("list benchmarks: %w", err)
	}
	return benchmarks, nil
}

func (r *GormBenchmarkRepo) SaveBenchmark(ctx context.Context, benchmark *entity.Benchmark) error {
	return r.db.WithContext(ctx).Save(benchmark).Error
}
