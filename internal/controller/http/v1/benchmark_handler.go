package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type BenchmarkUseCase interface {
	ListConfigs(ctx context.Context) ([]entity.BenchmarkConfig, error)
	Get(ctx context.Context, benchmarkID string) (*entity.BenchmarkReturn, error)
}

type BenchmarkHandler struct {
	UseCase BenchmarkUseCase
}

func NewBenchmarkHandler(u BenchmarkUseCase) *BenchmarkHandler {
	return &BenchmarkHandler{UseCase: u}
}

func (h *BenchmarkHandler) ListBenchmarks(c *gin.Context) {
	configs, err := h.UseCase.ListConfigs(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *BenchmarkHandler) GetBenchmark(c *gin.Context) {
	benchmark, err := h.UseCase.Get(c.Request.Context(), c.Param("benchmark_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, benchmark)
}
