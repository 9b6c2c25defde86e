package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/lyuyangh/explainaboard-web/internal/analysis"
	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// AnalyzerSystemRepo is the slice of system storage the worker needs.
type AnalyzerSystemRepo interface {
	UpdateSystemStatus(ctx context.Context, systemID string, status entity.SystemStatus) error
	StoreAnalysis(ctx context.Context, systemID, analysisKey string, overall []byte) error
}

type AnalyzerStorage interface {
	Upload(ctx context.Context, key string, file []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type AnalyzerUseCase struct {
	SystemRepo AnalyzerSystemRepo
	Storage    AnalyzerStorage
	StatusRepo StatusRepo
	NumBuckets int
}

func NewAnalyzerUseCase(repo AnalyzerSystemRepo, storage AnalyzerStorage, status StatusRepo, numBuckets int) *AnalyzerUseCase {
	return &AnalyzerUseCase{
		SystemRepo: repo,
		Storage:    storage,
		StatusRepo: status,
		NumBuckets: numBuckets,
	}
}

// ProcessSystem runs the offline bucket analysis for one submitted system.
// Malformed submissions are marked FAILED and acknowledged; infrastructure
// errors are returned so the message is redelivered.
func (u *AnalyzerUseCase) ProcessSystem(ctx context.Context, msg *entity.SystemCreatedMessage) error {
	log.Printf("Analyzing system %s\n", msg.SystemID)

	if err := u.SystemRepo.UpdateSystemStatus(ctx, msg.SystemID, entity.StatusAnalyzing); err != nil {
		return err
	}
	_ = u.StatusRepo.SetStatus(ctx, msg.SystemID, string(entity.StatusAnalyzing))

	data, err := u.Storage.GetObject(ctx, msg.OutputKey)
	if err != nil {
		return err
	}

	rows, err := analysis.DecodeRows(data, msg.Features)
	if err != nil {
		return u.fail(ctx, msg.SystemID, err)
	}
	report, err := analysis.Analyze(msg.SystemID, rows, msg.Metrics, msg.Features, u.NumBuckets)
	if err != nil {
		return u.fail(ctx, msg.SystemID, err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	analysisKey := "systems/" + msg.SystemID + "/analysis.json"
	if err := u.Storage.Upload(ctx, analysisKey, reportJSON); err != nil {
		return err
	}

	overallJSON, err := json.Marshal(report.Overall)
	if err != nil {
		return fmt.Errorf("encode overall results: %w", err)
	}
	if err := u.SystemRepo.StoreAnalysis(ctx, msg.SystemID, analysisKey, overallJSON); err != nil {
		return err
	}
	return u.StatusRepo.SetStatus(ctx, msg.SystemID, string(entity.StatusCompleted))
}

// fail marks the system FAILED and swallows the original error so the queue
// does not redeliver a submission that can never succeed.
func (u *AnalyzerUseCase) fail(ctx context.Context, systemID string, cause error) error {
	log.Printf("analysis failed for system %s: %v\n", systemID, cause)
	if err := u.SystemRepo.UpdateSystemStatus(ctx, systemID, entity.StatusFailed); err != nil {
		return err
	}
	return u.StatusRepo.SetStatus(ctx, systemID, string(entity.StatusFailed))
}
