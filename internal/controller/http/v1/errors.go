package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyuyangh/explainaboard-web/internal/domain/usecase"
)

// abortWithError maps usecase sentinels onto status codes; anything
// unrecognized is a 500.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, usecase.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
