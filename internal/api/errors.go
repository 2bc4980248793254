package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/core"
)

// mapCoreErrorToStatus maps errors from the core services to HTTP status
// codes and an ErrorResponse body.
func mapCoreErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrVaultNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrVaultNotFound.Error()}
	case errors.Is(err, core.ErrShareNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrShareNotFound.Error()}
	case errors.Is(err, core.ErrRequestNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrRequestNotFound.Error()}
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: core.ErrUserNotFound.Error()}
	case errors.Is(err, core.ErrForbiddenAccess):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Error: core.ErrForbiddenAccess.Error()}
	case errors.Is(err, core.ErrCannotShareWithSelf):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrCannotShareWithSelf.Error()}
	case errors.Is(err, core.ErrInvalidShareRole):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidShareRole.Error()}
	case errors.Is(err, core.ErrInvalidGrantee):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidGrantee.Error()}
	case errors.Is(err, core.ErrInvalidVisibility):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidVisibility.Error()}
	case errors.Is(err, core.ErrInvalidRequestStatus):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrInvalidRequestStatus.Error()}
	case errors.Is(err, core.ErrRequestSettled):
		statusCode = http.StatusConflict
		errResponse = ErrorResponse{Error: core.ErrRequestSettled.Error()}
	case errors.Is(err, core.ErrOwnerCannotRequest):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: core.ErrOwnerCannotRequest.Error()}
	case errors.Is(err, core.ErrAnonymousRequest):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: core.ErrAnonymousRequest.Error()}
	default:
		log.Printf("Internal Server Error: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}
