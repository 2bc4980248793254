package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/middleware"
	"refvault-backend-go/internal/models"
)

// ShareHandler handles the share registry endpoints.
type ShareHandler struct {
	shareService core.ShareService
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(ss core.ShareService) *ShareHandler {
	return &ShareHandler{shareService: ss}
}

// ShareVault handles POST /vaults/:vaultId/shares
func (h *ShareHandler) ShareVault(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.ShareVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	share, err := h.shareService.Share(c.Request.Context(), caller.UserID, vaultID, req)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, share)
}

// ListShares handles GET /vaults/:vaultId/shares
func (h *ShareHandler) ListShares(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	shares, err := h.shareService.ListByVault(c.Request.Context(), caller.UserID, vaultID)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, shares)
}

// UpdateShare handles PUT /vaults/:vaultId/shares/:shareId
func (h *ShareHandler) UpdateShare(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	shareID := c.Param("shareId")
	if shareID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Share ID is required"})
		return
	}

	var req models.UpdateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	share, err := h.shareService.UpdateRole(c.Request.Context(), caller.UserID, shareID, req.Role)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, share)
}

// RemoveShare handles DELETE /vaults/:vaultId/shares/:shareId
func (h *ShareHandler) RemoveShare(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	shareID := c.Param("shareId")
	if shareID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Share ID is required"})
		return
	}

	if err := h.shareService.Remove(c.Request.Context(), caller.UserID, shareID); err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
