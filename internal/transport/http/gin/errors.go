package httpgin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tix-events/internal/repository"
	"github.com/kirinyoku/tix-events/internal/service/importer"
	"github.com/kirinyoku/tix-events/internal/service/ledger"
	"github.com/kirinyoku/tix-events/internal/service/registry"
)

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Detail: msg})
}

func respondErr(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}

	c.JSON(status, ErrorResponse{Detail: detail})
}

func statusFor(err error) (int, string) {
	var invalid ledger.InvalidArgumentError

	switch {
	// not found
	case errors.Is(err, ledger.ErrEventNotFound):
		return http.StatusNotFound, ledger.ErrEventNotFound.Error()
	case errors.Is(err, registry.ErrAttendeeNotFound):
		return http.StatusNotFound, registry.ErrAttendeeNotFound.Error()
	// inventory
	case errors.Is(err, ledger.ErrSoldOut):
		return http.StatusBadRequest, ledger.ErrSoldOut.Error()
	case errors.Is(err, ledger.ErrInsufficientCapacity):
		return http.StatusBadRequest, ledger.ErrInsufficientCapacity.Error()
	case errors.Is(err, ledger.ErrInvariantViolation):
		return http.StatusBadRequest, ledger.ErrInvariantViolation.Error()
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Reason
	// import
	case errors.Is(err, importer.ErrInvalidEncoding):
		return http.StatusBadRequest, importer.ErrInvalidEncoding.Error()
	case errors.Is(err, importer.ErrInvalidHeader):
		return http.StatusBadRequest, importer.ErrInvalidHeader.Error()
	// concurrent writers
	case errors.Is(err, ledger.ErrConflict), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ledger.ErrConflict.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}
