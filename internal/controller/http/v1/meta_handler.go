package v1

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/lyuyangh/explainaboard-web/internal/domain/entity"
)

// APIVersion is reported by /info so clients can detect contract drift.
const APIVersion = "1.0.0"

type TaskUseCase interface {
	Categories() []entity.TaskCategory
}

type MetaHandler struct {
	Tasks TaskUseCase
}

func NewMetaHandler(tasks TaskUseCase) *MetaHandler {
	return &MetaHandler{Tasks: tasks}
}

func (h *MetaHandler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"env":         os.Getenv("APP_ENV"),
		"api_version": APIVersion,
	})
}

func (h *MetaHandler) GetTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tasks.Categories())
}
