package psql

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

var metricNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type GormSystemRepo struct {
	db *gorm.DB
}

func NewGormSystemRepo(db *gorm.DB) *GormSystemRepo {
	return &GormSystemRepo{db: db}
}

func (r *GormSystemRepo) CreateSystem(ctx context.Context, system *entity.System) error {
	return r.db.WithContext(ctx).Create(system).Error
}

func (r *GormSystemRepo) GetSystem(ctx context.Context, systemID string) (*entity.System, error) {
	system := &entity.System{}
	if err := r.db.WithContext(ctx).First(system, "system_id = ?", systemID).Error; err != nil {
		return nil, fmt.Errorf("system not found: %w", err)
	}
	return system, nil
}

// FindSystems returns one page of systems matching the query plus the total
// match count. Sorting by a metric resolves against the overall results JSON.
func (r *GormSystemRepo) FindSystems(ctx context.Context, query entity.SystemQuery) (*entity.SystemsReturn, error) {
	tx := r.db.WithContext(ctx).Model(&entity.System{})
	if len(query.SystemIDs) > 0 {
		tx = tx.Where("system_id IN ?", query.SystemIDs)
	}
	if query.SystemName != "" {
		tx = tx.Where("system_name = ?", query.SystemName)
	}
	if query.Task != "" {
		tx = tx.Where("task = ?", query.Task)
	}
	if query.DatasetName != "" {
		tx = tx.Where("dataset_name = ?", query.DatasetName)
	}
	if query.SubDataset != "" {
		tx = tx.Where("sub_dataset = ?", query.SubDataset)
	}
	if query.Split != "" {
		tx = tx.Where("split = ?", query.Split)
	}
	if query.Creator != "" {
		tx = tx.Where("creator = ?", query.Creator)
	}
	if query.SharedUser != "" {
		tx = tx.Where("shared_users @> ?", fmt.Sprintf("[%q]", query.SharedUser))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count systems: %w", err)
	}

	order, err := orderClause(query.SortField, query.SortAscending)
	if err != nil {
		return nil, err
	}
	tx = tx.Order(order)
	if query.PageSize > 0 {
		tx = tx.Offset(query.Page * query.PageSize).Limit(query.PageSize)
	}

	var systems []entity.System
	if err := tx.Find(&systems).Error; err != nil {
		return nil, fmt.Errorf("find systems: %w", err)
	}
	return &entity.SystemsReturn{Systems: systems, Total: total}, nil
}

func orderClause(sortField string, ascending bool) (string, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	if sortField == "" || sortField == "created_at" {
		return "created_at " + direction, nil
	}
	if !metricNamePattern.MatchString(sortField) {
		return "", fmt.Errorf("invalid sort field: %s", sortField)
	}
	return fmt.Sprintf("(overall -> '%s' ->> 'value')::float %s NULLS LAST", sortField, direction), nil
}

func (r *GormSystemRepo) UpdateSystemStatus(ctx context.Context, systemID string, status entity.SystemStatus) error {
	return r.db.WithContext(ctx).Model(&entity.System{}).
		Where("system_id = ?", systemID).
		Update("status", status).Error
}

// StoreAnalysis records the worker's result on the system row.
func (r *GormSystemRepo) StoreAnalysis(ctx context.Context, systemID, analysisKey string, overall []byte) error {
	return r.db.WithContext(ctx).Model(&entity.System{}).
		Where("system_id = ?", systemID).
		Updates(map[string]interface{}{
			"analysis_key": analysisKey,
			"overall":      datatypes.JSON(overall),
			"status":       entity.StatusCompleted,
			"updated_at":   time.Now(),
		}).Error
}

func (r *GormSystemRepo) DeleteSystem(ctx context.Context, systemID string) error {
	result := r.db.WithContext(ctx).Delete(&entity.System{}, "system_id = ?", systemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("system not found: %s", systemID)
	}
	return nil
}
