package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/safe-eats/api/internal/apperr"
	"github.com/safe-eats/api/internal/model"
)

// respondError maps a service error onto an HTTP status
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidState:
		status = http.StatusConflict
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	}
	c.JSON(status, model.ErrorResponse{Error: err.Error()})
}

// pathUUID parses the :id segment; responds 400 and returns false on garbage
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid " + name, Message: err.Error()})
		return uuid.Nil, false
	}
	return id, true
}
