package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type BenchmarkRepo interface {
	GetBenchmark(ctx context.Context, benchmarkID string) (*entity.Benchmark, error)
	ListBenchmarks(ctx context.Context) ([]entity.Benchmark, error)
}

type BenchmarkCache interface {
	GetLeaderboard(ctx context.Context, benchmarkID string) ([]byte, error)
	SetLeaderboard(ctx context.Context, benchmarkID string, table []byte, ttl time.Duration) error
}

// leaderboardTTL bounds staleness between submissions and cache invalidation
// misses.
const leaderboardTTL = 10 * time.Minute

type BenchmarkUseCase struct {
	BenchmarkRepo BenchmarkRepo
	SystemRepo    SystemRepo
	Cache         BenchmarkCache
}

func NewBenchmarkUseCase(repo BenchmarkRepo, systems SystemRepo, cache BenchmarkCache) *BenchmarkUseCase {
	return &BenchmarkUseCase{
		BenchmarkRepo: repo,
		SystemRepo:    systems,
		Cache:         cache,
	}
}

func (u *BenchmarkUseCase) ListConfigs(ctx context.Context) ([]entity.BenchmarkConfig, error) {
	benchmarks, err := u.BenchmarkRepo.ListBenchmarks(ctx)
	if err != nil {
		return nil, err
	}
	configs := make([]entity.BenchmarkConfig, 0, len(benchmarks))
	for _, benchmark := range benchmarks {
		var config entity.BenchmarkConfig
		if err := json.Unmarshal(benchmark.Config, &config); err != nil {
			return nil, fmt.Errorf("decode benchmark config %s: %w", benchmark.BenchmarkID, err)
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// Get composes the benchmark leaderboard, serving from the Redis cache when a
// fresh copy exists.
func (u *BenchmarkUseCase) Get(ctx context.Context, benchmarkID string) (*entity.BenchmarkReturn, error) {
	if cached, err := u.Cache.GetLeaderboard(ctx, benchmarkID); err == nil && cached != nil {
		var composed entity.BenchmarkReturn
		if err := json.Unmarshal(cached, &composed); err == nil {
			return &composed, nil
		}
	}

	benchmark, err := u.BenchmarkRepo.GetBenchmark(ctx, benchmarkID)
	if err != nil {
		return nil, notFound(fmt.Sprintf("benchmark id: %s not found", benchmarkID))
	}
	var config entity.BenchmarkConfig
	if err := json.Unmarshal(benchmark.Config, &config); err != nil {
		return nil, fmt.Errorf("decode benchmark config %s: %w", benchmarkID, err)
	}

	rows, err := u.collectRows(ctx, config)
	if err != nil {
		return nil, err
	}

	composed := &entity.BenchmarkReturn{Config: config}
	composed.Views = append(composed.Views, composeTable("orig", rows))
	for _, view := range config.Views {
		composed.Views = append(composed.Views, composeTable(view.Name, applyView(rows, view)))
	}

	if data, err := json.Marshal(composed); err == nil {
		_ = u.Cache.SetLeaderboard(ctx, benchmarkID, data, leaderboardTTL)
	}
	return composed, nil
}

// scoreRow is one (system, dataset, metric) cell before aggregation.
type scoreRow struct {
	SystemName string
	Column     string
	Weight     float64
	Score      float64
}

// collectRows expands the config into the raw score table: every system on a
// benchmark dataset contributes one row per declared metric, with the metric
// default standing in for missing results.
func (u *BenchmarkUseCase) collectRows(ctx context.Context, config entity.BenchmarkConfig) ([]scoreRow, error) {
	var rows []scoreRow
	for _, dataset := range config.Datasets {
		metrics := dataset.Metrics
		if len(metrics) == 0 {
			metrics = config.Metrics
		}
		if len(metrics) == 0 {
			return nil, fmt.Errorf(
				"metrics must be specified either on a global or local level, but %s -- %s -- %s specified neither",
				dataset.DatasetName, dataset.SubDataset, dataset.Split)
		}

		found, err := u.SystemRepo.FindSystems(ctx, entity.SystemQuery{
			DatasetName: dataset.DatasetName,
			SubDataset:  dataset.SubDataset,
			Split:       dataset.Split,
		})
		if err != nil {
			return nil, err
		}

		for _, system := range found.Systems {
			overall := make(map[string]entity.Performance)
			if len(system.Overall) > 0 {
				if err := json.Unmarshal(system.Overall, &overall); err != nil {
					return nil, fmt.Errorf("decode overall results for %s: %w", system.SystemID, err)
				}
			}
			for _, metric := range metrics {
				score := metric.Default
				if perf, ok := overall[metric.Name]; ok {
					score = perf.Value
				}
				weight := metric.Weight
				if weight == 0 {
					weight = 1.0 / float64(len(metrics))
				}
				rows = append(rows, scoreRow{
					SystemName: system.SystemName,
					Column:     columnName(dataset, metric.Name),
					Weight:     weight,
					Score:      score,
				})
			}
		}
	}
	return rows, nil
}

func columnName(dataset entity.BenchmarkDataset, metric string) string {
	name := "dataset_name=" + dataset.DatasetName
	if dataset.SubDataset != "" {
		name += ", sub_dataset=" + dataset.SubDataset
	}
	if dataset.Split != "" {
		name += ", dataset_split=" + dataset.Split
	}
	return name + ", metric=" + metric
}

// applyView runs a view's aggregation pipeline over the raw rows.
func applyView(rows []scoreRow, view entity.BenchmarkView) []scoreRow {
	out := make([]scoreRow, len(rows))
	copy(out, rows)
	for _, operation := range view.Operations {
		switch operation.Op {
		case "multiply":
			for i := range out {
				out[i].Score *= out[i].Weight
			}
		case "mean":
			out = groupBySystem(out, view.Name, func(scores []float64) float64 {
				return sum(scores) / float64(len(scores))
			})
		case "sum":
			out = groupBySystem(out, view.Name, sum)
		}
	}
	return out
}

func groupBySystem(rows []scoreRow, column string, combine func([]float64) float64) []scoreRow {
	order := make([]string, 0)
	grouped := make(map[string][]float64)
	for _, row := range rows {
		if _, ok := grouped[row.SystemName]; !ok {
			order = append(order, row.SystemName)
		}
		grouped[row.SystemName] = append(grouped[row.SystemName], row.Score)
	}
	out := make([]scoreRow, 0, len(order))
	for _, system := range order {
		out = append(out, scoreRow{
			SystemName: system,
			Column:     column,
			Score:      combine(grouped[system]),
		})
	}
	return out
}

func sum(scores []float64) float64 {
	var total float64
	for _, score := range scores {
		total += score
	}
	return total
}

// composeTable pivots rows into a system-by-column matrix. Systems are ranked
// by total score descending so single-column views read as leaderboards.
func composeTable(name string, rows []scoreRow) entity.BenchmarkTable {
	columnIdx := make(map[string]int)
	var columns []string
	systemIdx := make(map[string]int)
	var systems []string
	for _, row := range rows {
		if _, ok := columnIdx[row.Column]; !ok {
			columnIdx[row.Column] = len(columns)
			columns = append(columns, row.Column)
		}
		if _, ok := systemIdx[row.SystemName]; !ok {
			systemIdx[row.SystemName] = len(systems)
			systems = append(systems, row.SystemName)
		}
	}

	scores := make([][]float64, len(systems))
	for i := range scores {
		scores[i] = make([]float64, len(columns))
	}
	for _, row := range rows {
		scores[systemIdx[row.SystemName]][columnIdx[row.Column]] = row.Score
	}

	ranking := make([]int, len(systems))
	for i := range ranking {
		ranking[i] = i
	}
	sort.SliceStable(ranking, func(a, b int) bool {
		return sum(scores[ranking[a]]) > sum(scores[ranking[b]])
	})

	table := entity.BenchmarkTable{
		Name:        name,
		ColumnNames: columns,
		SystemNames: make([]string, len(systems)),
		Scores:      make([][]float64, len(systems)),
	}
	for rank, idx := range ranking {
		table.SystemNames[rank] = systems[idx]
		table.Scores[rank] = scores[idx]
	}
	return table
}
