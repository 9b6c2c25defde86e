package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

type DatasetUseCase interface {
	Get(ctx context.Context, datasetID string) (*entity.Dataset, error)
	List(ctx context.Context, ids []string, name, task string, page, pageSize int) (*entity.DatasetsReturn, error)
}

type DatasetHandler struct {
	UseCase DatasetUseCase
}

func NewDatasetHandler(u DatasetUseCase) *DatasetHandler {
	return &DatasetHandler{UseCase: u}
}

func (h *DatasetHandler) GetDataset(c *gin.Context) {
	dataset, err := h.UseCase.Get(c.Request.Context(), c.Param("dataset_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page_size"})
		return
	}

	var ids []string
	if raw := c.Query("dataset_ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	datasets, err := h.UseCase.List(c.Request.Context(), ids, c.Query("dataset_name"), c.Query("task"), page, pageSize)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasets)
}
