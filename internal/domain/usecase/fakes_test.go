package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type fakeSystemRepo struct {
	systems map[string]*entity.System
	deleted []string
}

func newFakeSystemRepo() *fakeSystemRepo {
	return &fakeSystemRepo{systems: make(map[string]*entity.System)}
}

func (f *fakeSystemRepo) CreateSystem(_ context.Context, system *entity.System) error {
	f.systems[system.SystemID] = system
	return nil
}

func (f *fakeSystemRepo) GetSystem(_ context.Context, systemID string) (*entity.System, error) {
	system, ok := f.systems[systemID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return system, nil
}

func (f *fakeSystemRepo) FindSystems(_ context.Context, query entity.SystemQuery) (*entity.SystemsReturn, error) {
	var matched []entity.System
	for _, system := range f.systems {
		if len(query.SystemIDs) > 0 && !contains(query.SystemIDs, system.SystemID) {
			continue
		}
		if query.DatasetName != "" && system.DatasetName != query.DatasetName {
			continue
		}
		if query.Split != "" && system.Split != query.Split {
			continue
		}
		matched = append(matched, *system)
	}
	return &entity.SystemsReturn{Systems: matched, Total: int64(len(matched))}, nil
}

func (f *fakeSystemRepo) UpdateSystemStatus(_ context.Context, systemID string, status entity.SystemStatus) error {
	system, ok := f.systems[systemID]
	if !ok {
		return errors.New("record not found")
	}
	system.Status = status
	return nil
}

func (f *fakeSystemRepo) StoreAnalysis(_ context.Context, systemID, analysisKey string, overall []byte) error {
	system, ok := f.systems[systemID]
	if !ok {
		return errors.New("record not found")
	}
	system.AnalysisKey = analysisKey
	system.Overall = overall
	system.Status = entity.StatusCompleted
	return nil
}

func (f *fakeSystemRepo) DeleteSystem(_ context.Context, systemID string) error {
	if _, ok := f.systems[systemID]; !ok {
		return errors.New("record not found")
	}
	delete(f.systems, systemID)
	f.deleted = append(f.deleted, systemID)
	return nil
}

type fakeStatusRepo struct {
	statuses      map[string]string
	leaderboards  map[string][]byte
	invalidations int
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{
		statuses:     make(map[string]string),
		leaderboards: make(map[string][]byte),
	}
}

func (f *fakeStatusRepo) SetStatus(_ context.Context, systemID, status string) error {
	f.statuses[systemID] = status
	return nil
}

func (f *fakeStatusRepo) GetStatus(_ context.Context, systemID string) (string, error) {
	status, ok := f.statuses[systemID]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return status, nil
}

func (f *fakeStatusRepo) SetLeaderboard(_ context.Context, benchmarkID string, table []byte, _ time.Duration) error {
	f.leaderboards[benchmarkID] = table
	return nil
}

func (f *fakeStatusRepo) GetLeaderboard(_ context.Context, benchmarkID string) ([]byte, error) {
	return f.leaderboards[benchmarkID], nil
}

func (f *fakeStatusRepo) InvalidateLeaderboards(_ context.Context) error {
	f.invalidations++
	f.leaderboards = make(map[string][]byte)
	return nil
}

type fakeStorage struct {
	objects   map[string][]byte
	removed   []string
	removeErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, key string, file []byte) error {
	f.objects[key] = file
	return nil
}

func (f *fakeStorage) GetObject(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key: " + key)
	}
	return data, nil
}

func (f *fakeStorage) Remove(_ context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStorage) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://storage.local/" + key, nil
}

type fakePublisher struct {
	failures  int
	published []json.RawMessage
}

func (f *fakePublisher) Publish(_ context.Context, body json.RawMessage) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, body)
	return nil
}

type fakeBenchmarkRepo struct {
	benchmarks map[string]*entity.Benchmark
}

func (f *fakeBenchmarkRepo) GetBenchmark(_ context.Context, benchmarkID string) (*entity.Benchmark, error) {
	benchmark, ok := f.benchmarks[benchmarkID]
	if !ok {
		return nil, errors.New("record not found")
	}
	return benchmark, nil
}

func (f *fakeBenchmarkRepo) ListBenchmarks(_ context.Context) ([]entity.Benchmark, error) {
	var out []entity.Benchmark
	for _, benchmark := range f.benchmarks {
		out = append(out, *benchmark)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
