package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lyuyangh/explainaboard-web/internal/analysis"
	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
	"github.com/lyuyangh/explainaboard-web/internal/domain/usecase"
)

// defaultOutputLimit caps the rows returned by the outputs endpoint.
const defaultOutputLimit = 10

type SystemUseCase interface {
	Submit(ctx context.Context, props *usecase.SystemCreateProps, userID string) (*entity.System, error)
	Get(ctx context.Context, systemID string) (*entity.System, error)
	List(ctx context.Context, query entity.SystemQuery) (*entity.SystemsReturn, error)
	GetStatus(ctx context.Context, systemID string) (entity.SystemStatus, error)
	GetOutputs(ctx context.Context, systemID, userID string, limit int) ([]map[string]json.RawMessage, string, error)
	Analyses(ctx context.Context, systemIDs []string, userID string, decimalPlaces int, featureBuckets map[string]analysis.BucketInfo) (map[string]map[string]map[string]*analysis.FineGrained, error)
	Delete(ctx context.Context, systemID, userID string) error
}

type SystemHandler struct {
	UseCase SystemUseCase
}

func NewSystemHandler(u SystemUseCase) *SystemHandler {
	return &SystemHandler{UseCase: u}
}

func (h *SystemHandler) CreateSystem(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	var props usecase.SystemCreateProps
	if err := c.ShouldBindJSON(&props); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	system, err := h.UseCase.Submit(c.Request.Context(), &props, userID.(string))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, system)
}

func (h *SystemHandler) GetSystem(c *gin.Context) {
	system, err := h.UseCase.Get(c.Request.Context(), c.Param("system_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, system)
}

// ListSystems handles filters, pagination and sorting. Sorting defaults to
// created_at descending; any other sort field resolves to that metric's
// overall value.
func (h *SystemHandler) ListSystems(c *gin.Context) {
	sortDirection := c.DefaultQuery("sort_direction", "desc")
	if sortDirection != "asc" && sortDirection != "desc" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort_direction needs to be one of asc or desc"})
		return
	}

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

	query := entity.SystemQuery{
		SystemName:    c.Query("system_name"),
		Task:          c.Query("task"),
		DatasetName:   c.Query("dataset"),
		SubDataset:    c.Query("subdataset"),
		Split:         c.Query("split"),
		Creator:       c.Query("creator"),
		SharedUser:    c.Query("shared_user"),
		Page:          page,
		PageSize:      pageSize,
		SortField:     c.DefaultQuery("sort_field", "created_at"),
		SortAscending: sortDirection == "asc",
	}
	if ids := c.Query("system_ids"); ids != "" {
		query.SystemIDs = strings.Split(ids, ",")
	}

	systems, err := h.UseCase.List(c.Request.Context(), query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, systems)
}

func (h *SystemHandler) GetStatus(c *gin.Context) {
	systemID := c.Param("system_id")
	status, err := h.UseCase.GetStatus(c.Request.Context(), systemID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"system_id": systemID, "status": status})
}

func (h *SystemHandler) GetOutputs(c *gin.Context) {
	userID, _ := c.Get("user_id")
	limit := defaultOutputLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	rows, url, err := h.UseCase.GetOutputs(c.Request.Context(), c.Param("system_id"), asString(userID), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"system_outputs": rows, "download_url": url})
}

type systemsAnalysesBody struct {
	SystemIDs           string                         `json:"system_ids"`
	DecimalPlaces       int                            `json:"decimal_places"`
	FeatureToBucketInfo map[string]analysis.BucketInfo `json:"feature_to_bucket_info"`
}

// Analyses returns fine-grained bucket results for a batch of systems.
// An empty id list yields an empty map, not an error.
func (h *SystemHandler) Analyses(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var body systemsAnalysesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var systemIDs []string
	if body.SystemIDs != "" {
		systemIDs = strings.Split(body.SystemIDs, ",")
	}

	analyses, err := h.UseCase.Analyses(c.Request.Context(), systemIDs, asString(userID), body.DecimalPlaces, body.FeatureToBucketInfo)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"single_analyses": analyses})
}

func (h *SystemHandler) DeleteSystem(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	if err := h.UseCase.Delete(c.Request.Context(), c.Param("system_id"), userID.(string)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
