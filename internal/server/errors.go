package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	ingestdomain "github.com/smallbiznis/orderpulse/internal/ingest/domain"
	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	reportdomain "github.com/smallbiznis/orderpulse/internal/report/domain"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware maps domain errors collected on the gin
// context onto HTTP responses. Handlers report errors via
// AbortWithError and never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var parseErr *ingestdomain.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_input",
			Message: "input file rejected",
			Detail:  parseErr.Error(),
		}
	}

	switch {
	case errors.Is(err, profiledomain.ErrInvalidRunID):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid run id",
		}
	case errors.Is(err, profiledomain.ErrRunNotFound),
		errors.Is(err, reportdomain.ErrNoCompletedRun),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
