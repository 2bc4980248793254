package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/middleware"
	"refvault-backend-go/internal/models"
)

// VaultHandler handles the owner-side vault record endpoints.
type VaultHandler struct {
	vaultService core.VaultService
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(vs core.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vs}
}

// CreateVault handles POST /vaults
func (h *VaultHandler) CreateVault(c *gin.Context) {
	caller := middleware.CallerFromContext(c)

	var req models.CreateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	vault, err := h.vaultService.CreateVault(c.Request.Context(), caller.UserID, req)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, vault)
}

// ListVaults handles GET /vaults
func (h *VaultHandler) ListVaults(c *gin.Context) {
	caller := middleware.CallerFromContext(c)

	vaults, err := h.vaultService.ListVaults(c.Request.Context(), caller.UserID)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, vaults)
}

// UpdateVault handles PUT /vaults/:vaultId
func (h *VaultHandler) UpdateVault(c *gin.Context) {
	caller := middleware.CallerFromContext(c)
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}

	var req models.UpdateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	vault, err := h.vaultService.UpdateVault(c.Request.Context(), caller.UserID, vaultID, req)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, vault)
}

// RecordView handles POST /vaults/:vaultId/view
func (h *VaultHandler) RecordView(c *gin.Context) {
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}
	if err := h.vaultService.RecordView(c.Request.Context(), vaultID); err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordDownload handles POST /vaults/:vaultId/download
func (h *VaultHandler) RecordDownload(c *gin.Context) {
	vaultID := c.Param("vaultId")
	if vaultID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Vault ID is required"})
		return
	}
	if err := h.vaultService.RecordDownload(c.Request.Context(), vaultID); err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
