package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/liquidagov/internal/application/batch"
	"github.com/garyjia/liquidagov/internal/application/workflow"
	"github.com/garyjia/liquidagov/internal/domain/entity"
	domainwf "github.com/garyjia/liquidagov/internal/domain/workflow"
)

// ValidationDetails tells the operator what to fix
type ValidationDetails struct {
	Reason string   `json:"reason"`
	Fields []string `json:"fields,omitempty"`
}

// statusFor maps application errors onto HTTP status codes
func statusFor(err error) int {
	var verr *entity.ValidationError
	var empty *entity.EmptyBatchError

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &empty):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, batch.ErrNoPendingDispatch),
		errors.Is(err, batch.ErrDispatchPending):
		return http.StatusConflict
	case errors.Is(err, batch.ErrDispatchCancelled):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope; unexpected errors are logged
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := Response{Success: false, Error: err.Error()}

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		resp.Details = ValidationDetails{Reason: verr.Reason, Fields: verr.Fields}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"path", c.Request.URL.Path,
			"error", err)
	}

	c.JSON(status, resp)
}
