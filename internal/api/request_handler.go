package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/middleware"
	"refvault-backend-go/internal/models"
)

// RequestHandler handles the access request registry endpoints.
type RequestHandler struct {
	requestService core.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(rs core.RequestService) *RequestHandler {
	return &RequestHandler{requestService: rs}
}

// RequestAccess handles POST /vaults/:vaultId/access/requests
func (h *RequestHandler) RequestAccess(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.CreateAccessRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	accessRequest, err := h.requestService.Create(c.Request.Context(), caller, vaultID, req.Note)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, accessRequest)
}

// ListRequests handles GET /vaults/:vaultId/access/requests?status=pending,approved
func (h *RequestHandler) ListRequests(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	requests, err := h.requestService.ListByVault(c.Request.Context(), caller.UserID, vaultID, statuses)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// SetRequestStatus handles PATCH /access-requests/:requestId
func (h *RequestHandler) SetRequestStatus(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	requestID := c.Param("requestId")
	if requestID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Request ID is required"})
		return
	}

	var req models.SetRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	accessRequest, err := h.requestService.SetStatus(c.Request.Context(), caller.UserID, requestID, req.Status)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, accessRequest)
}
