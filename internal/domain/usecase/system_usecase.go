package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lyuyangh/explainaboard-web/internal/analysis"
	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
	"github.com/lyuyangh/explainaboard-web/pkg/utils"
)

type SystemRepo interface {
	CreateSystem(ctx context.Context, system *entity.System) error
	GetSystem(ctx context.Context, systemID string) (*entity.System, error)
	FindSystems(ctx context.Context, query entity.SystemQuery) (*entity.SystemsReturn, error)
	DeleteSystem(ctx context.Context, systemID string) error
}

type StatusRepo interface {
	SetStatus(ctx context.Context, systemID, status string) error
	GetStatus(ctx context.Context, systemID string) (string, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, file []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, body json.RawMessage) error
}

type LeaderboardCache interface {
	InvalidateLeaderboards(ctx context.Context) error
}

// TaskRegistry answers which metrics a task declares.
type TaskRegistry interface {
	SupportsMetric(task, metric string) bool
}

// SystemCreateProps is a system submission. SystemOutput carries the model
// outputs as base64-encoded JSON; CustomDataset, when present, carries an
// unregistered dataset the same way.
type SystemCreateProps struct {
	SystemName    string   `json:"system_name"`
	Task          string   `json:"task"`
	DatasetID     string   `json:"dataset_metadata_id"`
	DatasetName   string   `json:"dataset_name"`
	SubDataset    string   `json:"sub_dataset"`
	Split         string   `json:"dataset_split"`
	Metrics       []string `json:"metrics"`
	Features      []string `json:"features"`
	IsPrivate     bool     `json:"is_private"`
	SharedUsers   []string `json:"shared_users"`
	SystemOutput  string   `json:"system_output"`
	CustomDataset string   `json:"custom_dataset"`
}

type SystemUseCase struct {
	SystemRepo SystemRepo
	StatusRepo StatusRepo
	Storage    ObjectStore
	Publisher  Publisher
	Cache      LeaderboardCache
	Tasks      TaskRegistry

	// retryBaseDelay overrides the publish backoff base; zero means 500ms.
	retryBaseDelay time.Duration
}

func NewSystemUseCase(repo SystemRepo, status StatusRepo, storage ObjectStore, pub Publisher, cache LeaderboardCache, tasks TaskRegistry) *SystemUseCase {
	return &SystemUseCase{
		SystemRepo: repo,
		StatusRepo: status,
		Storage:    storage,
		Publisher:  pub,
		Cache:      cache,
		Tasks:      tasks,
	}
}

// Submit validates and stores a new system, then queues it for analysis.
// The record is immutable afterwards; only the analyzer touches it again.
func (u *SystemUseCase) Submit(ctx context.Context, props *SystemCreateProps, userID string) (*entity.System, error) {
	if props.SystemName == "" || props.Task == "" {
		return nil, invalidInput("system_name and task are required")
	}
	for _, metric := range props.Metrics {
		if !u.Tasks.SupportsMetric(props.Task, metric) {
			return nil, invalidInput(fmt.Sprintf("metric %s is not supported by task %s", metric, props.Task))
		}
	}
	if props.DatasetID != "" {
		if props.Split == "" {
			return nil, invalidInput("dataset split is required if a dataset is chosen")
		}
		if props.CustomDataset != "" {
			return nil, invalidInput("both datalab dataset and custom dataset are provided. please only select one.")
		}
	}

	output, err := utils.DecodeBase64(props.SystemOutput)
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("file should be sent in plain text base64. (%v)", err))
	}

	systemID := uuid.New().String()
	outputKey := "systems/" + systemID + "/output.json"
	if err := u.Storage.Upload(ctx, outputKey, output); err != nil {
		return nil, err
	}
	if props.CustomDataset != "" {
		customData, err := utils.DecodeBase64(props.CustomDataset)
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("file should be sent in plain text base64. (%v)", err))
		}
		if err := u.Storage.Upload(ctx, "systems/"+systemID+"/custom_dataset.json", customData); err != nil {
			return nil, err
		}
	}

	metrics, err := json.Marshal(props.Metrics)
	if err != nil {
		return nil, err
	}
	sharedUsers, err := json.Marshal(props.SharedUsers)
	if err != nil {
		return nil, err
	}

	system := &entity.System{
		SystemID:    systemID,
		SystemName:  props.SystemName,
		Task:        props.Task,
		DatasetName: props.DatasetName,
		SubDataset:  props.SubDataset,
		Split:       props.Split,
		Creator:     userID,
		SharedUsers: sharedUsers,
		IsPrivate:   props.IsPrivate,
		Metrics:     metrics,
		OutputKey:   outputKey,
		Status:      entity.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := u.SystemRepo.CreateSystem(ctx, system); err != nil {
		return nil, err
	}
	if err := u.StatusRepo.SetStatus(ctx, systemID, string(system.Status)); err != nil {
		return nil, err
	}

	msg := entity.SystemCreatedMessage{
		SystemID:  systemID,
		Task:      props.Task,
		OutputKey: outputKey,
		Metrics:   props.Metrics,
		Features:  props.Features,
	}
	msgJSON, err := utils.ToRawMessage(msg)
	if err != nil {
		return nil, err
	}
	if err := u.publishWithRetry(ctx, msgJSON); err != nil {
		return nil, err
	}

	if err := u.Cache.InvalidateLeaderboards(ctx); err != nil {
		return nil, err
	}
	return system, nil
}

func (u *SystemUseCase) Get(ctx context.Context, systemID string) (*entity.System, error) {
	system, err := u.SystemRepo.GetSystem(ctx, systemID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("cannot find system_id: %s", systemID))
	}
	return system, nil
}

func (u *SystemUseCase) List(ctx context.Context, query entity.SystemQuery) (*entity.SystemsReturn, error) {
	if query.SortField == "" {
		query.SortField = "created_at"
	}
	return u.SystemRepo.FindSystems(ctx, query)
}

// GetStatus prefers the Redis status key and falls back to the record when
// the key has expired.
func (u *SystemUseCase) GetStatus(ctx context.Context, systemID string) (entity.SystemStatus, error) {
	status, err := u.StatusRepo.GetStatus(ctx, systemID)
	if err == nil && status != "" {
		return entity.SystemStatus(status), nil
	}
	system, err := u.SystemRepo.GetSystem(ctx, systemID)
	if err != nil {
		return "", notFound(fmt.Sprintf("cannot find system_id: %s", systemID))
	}
	return system.Status, nil
}

// GetOutputs returns the first limit raw output rows of a system, plus a
// presigned download link for the full file.
func (u *SystemUseCase) GetOutputs(ctx context.Context, systemID, userID string, limit int) ([]map[string]json.RawMessage, string, error) {
	system, err := u.SystemRepo.GetSystem(ctx, systemID)
	if err != nil {
		return nil, "", notFound(fmt.Sprintf("cannot find system_id: %s", systemID))
	}
	if system.IsPrivate && !hasAccess(system, userID) {
		return nil, "", forbidden("system access denied")
	}

	data, err := u.Storage.GetObject(ctx, system.OutputKey)
	if err != nil {
		return nil, "", err
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, "", fmt.Errorf("decode system output: %w", err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	url, err := u.Storage.GetPresignedURL(ctx, system.OutputKey, 24*time.Hour)
	if err != nil {
		return nil, "", err
	}
	return rows, url, nil
}

// Analyses returns parsed fine-grained results for a batch of systems, keyed
// by system id. Systems without a completed analysis are omitted. A non-empty
// featureBuckets rebuckets the named features from the raw output instead of
// serving the stored breakdown.
func (u *SystemUseCase) Analyses(ctx context.Context, systemIDs []string, userID string, decimalPlaces int, featureBuckets map[string]analysis.BucketInfo) (map[string]map[string]map[string]*analysis.FineGrained, error) {
	result := make(map[string]map[string]map[string]*analysis.FineGrained)
	if len(systemIDs) == 0 {
		return result, nil
	}

	found, err := u.SystemRepo.FindSystems(ctx, entity.SystemQuery{SystemIDs: systemIDs})
	if err != nil {
		return nil, err
	}
	for _, system := range found.Systems {
		if system.IsPrivate && !hasAccess(&system, userID) {
			return nil, forbidden("system access denied: " + system.SystemID)
		}
		if system.Status != entity.StatusCompleted || system.AnalysisKey == "" {
			continue
		}
		data, err := u.Storage.GetObject(ctx, system.AnalysisKey)
		if err != nil {
			return nil, err
		}
		var report entity.AnalysisReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decode analysis for %s: %w", system.SystemID, err)
		}
		if len(featureBuckets) > 0 {
			rebucketed, err := u.rebucket(ctx, &system, &report, featureBuckets)
			if err != nil {
				return nil, err
			}
			report = *rebucketed
		}
		result[system.SystemID] = analysis.Parse(&report, decimalPlaces)
	}
	return result, nil
}

// rebucket recomputes a system's bucket breakdown from the raw output with
// caller-chosen bucket counts or intervals. Overall scores are unchanged.
func (u *SystemUseCase) rebucket(ctx context.Context, system *entity.System, report *entity.AnalysisReport, featureBuckets map[string]analysis.BucketInfo) (*entity.AnalysisReport, error) {
	var metrics []string
	if len(system.Metrics) > 0 {
		if err := json.Unmarshal(system.Metrics, &metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for %s: %w", system.SystemID, err)
		}
	}
	features := make([]string, 0, len(report.Features))
	for name := range report.Features {
		if name != "true_label" {
			features = append(features, name)
		}
	}

	data, err := u.Storage.GetObject(ctx, system.OutputKey)
	if err != nil {
		return nil, err
	}
	rows, err := analysis.DecodeRows(data, features)
	if err != nil {
		return nil, fmt.Errorf("decode output for %s: %w", system.SystemID, err)
	}
	return analysis.AnalyzeWithBuckets(system.SystemID, rows, metrics, features, 0, featureBuckets)
}

// Delete removes a system record and its stored objects. Only the creator
// may delete. Objects go first so a storage failure leaves the record intact
// and the delete retryable.
func (u *SystemUseCase) Delete(ctx context.Context, systemID, userID string) error {
	system, err := u.SystemRepo.GetSystem(ctx, systemID)
	if err != nil {
		return notFound(fmt.Sprintf("cannot find system_id: %s", systemID))
	}
	if system.Creator != userID {
		return forbidden("only the creator can delete a system")
	}
	if err := u.Storage.Remove(ctx, system.OutputKey); err != nil {
		return err
	}
	if system.AnalysisKey != "" {
		if err := u.Storage.Remove(ctx, system.AnalysisKey); err != nil {
			return err
		}
	}
	if err := u.SystemRepo.DeleteSystem(ctx, systemID); err != nil {
		return err
	}
	return u.Cache.InvalidateLeaderboards(ctx)
}

func hasAccess(system *entity.System, userID string) bool {
	if userID == "" {
		return false
	}
	if system.Creator == userID {
		return true
	}
	var shared []string
	if err := json.Unmarshal(system.SharedUsers, &shared); err != nil {
		return false
	}
	for _, user := range shared {
		if user == userID {
			return true
		}
	}
	return false
}

func (u *SystemUseCase) publishWithRetry(ctx context.Context, msg json.RawMessage) error {
	var (
		baseDelay   = 500 * time.Millisecond
		maxDelay    = 10 * time.Second
		maxAttempts = 5
	)
	if u.retryBaseDelay > 0 {
		baseDelay = u.retryBaseDelay
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := u.Publisher.Publish(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxAttempts {
			break
		}

		backoff := baseDelay << (attempt - 1)
		if backoff > maxDelay {
			backoff = maxDelay
		}

		select {
		case <-time.After(backoff):

		case <-ctx.Done():
			return errors.New("publish canceled by context")
		}
	}

	return lastErr
}
