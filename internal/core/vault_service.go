package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/models"
)

// Custom errors for the vault service.
var (
	ErrInvalidVisibility = errors.New("invalid visibility tier")
	ErrVaultUpdateFailed = errors.New("failed to update vault")
)

// vaultService implements the VaultService interface: owner-side settings
// mutation plus the server-side view/download counters. Publication and tag
// CRUD live outside this core.
type vaultService struct {
	vaultRepo    db.VaultRepository
	auditService AuditService
	logger       *zap.Logger
}

// NewVaultService creates a new VaultService instance.
func NewVaultService(vr db.VaultRepository, as AuditService, logger *zap.Logger) VaultService {
	return &vaultService{vaultRepo: vr, auditService: as, logger: logger}
}

// CreateVault creates a new vault owned by ownerID.
func (s *vaultService) CreateVault(ctx context.Context, ownerID string, req models.CreateVaultRequest) (*models.Vault, error) {
	if !models.IsValidVisibility(req.Visibility) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidVisibility, req.Visibility)
	}

	vault := &models.Vault{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Visibility:  req.Visibility,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	vaultID, err := s.vaultRepo.Create(ctx, vault)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault in repository: %w", err)
	}
	vault.ID = vaultID

	s.audit(ctx, ownerID, "VAULT_CREATE", vault.ID, map[string]interface{}{
		"name":       vault.Name,
		"visibility": vault.Visibility,
	})

	return vault, nil
}

// UpdateVault updates vault settings if the caller is the owner.
func (s *vaultService) UpdateVault(ctx context.Context, ownerID, vaultID string, req models.UpdateVaultRequest) (*models.Vault, error) {
	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrVaultNotFound, vaultID)
		}
		return nil, fmt.Errorf("failed to get vault '%s' for update: %w", vaultID, err)
	}
	if vault.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user '%s' is not owner of vault '%s'", ErrForbiddenAccess, ownerID, vaultID)
	}

	if req.Name != nil {
		vault.Name = *req.Name
	}
	if req.Description != nil {
		vault.Description = *req.Description
	}
	if req.Color != nil {
		vault.Color = *req.Color
	}
	if req.Visibility != nil {
		if !models.IsValidVisibility(*req.Visibility) {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidVisibility, *req.Visibility)
		}
		vault.Visibility = *req.Visibility
	}
	vault.UpdatedAt = time.Now().UTC()

	if err := s.vaultRepo.Update(ctx, vault); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultUpdateFailed, err)
	}

	s.audit(ctx, ownerID, "VAULT_UPDATE", vault.ID, map[string]interface{}{
		"name":       vault.Name,
		"visibility": vault.Visibility,
	})

	return vault, nil
}

// ListVaults lists the vaults owned by ownerID.
func (s *vaultService) ListVaults(ctx context.Context, ownerID string) ([]*models.Vault, error) {
	vaults, err := s.vaultRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults for owner '%s': %w", ownerID, err)
	}
	return vaults, nil
}

// RecordView bumps the vault's view counter. Counters are system-maintained
// and not subject to the owner-only rule.
func (s *vaultService) RecordView(ctx context.Context, vaultID string) error {
	if err := s.vaultRepo.IncrementViewCount(ctx, vaultID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrVaultNotFound, vaultID)
		}
		return fmt.Errorf("failed to record view for vault '%s': %w", vaultID, err)
	}
	return nil
}

// RecordDownload bumps the vault's download counter.
func (s *vaultService) RecordDownload(ctx context.Context, vaultID string) error {
	if err := s.vaultRepo.IncrementDownloadCount(ctx, vaultID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrVaultNotFound, vaultID)
		}
		return fmt.Errorf("failed to record download for vault '%s': %w", vaultID, err)
	}
	return nil
}

func (s *vaultService) audit(ctx context.Context, actorID, action, vaultID string, details map[string]interface{}) {
	entry := models.AuditLog{
		UserID:     actorID,
		Action:     action,
		TargetType: "VAULT",
		TargetID:   vaultID,
		Timestamp:  time.Now().UTC(),
		Details:    details,
	}
	if err := s.auditService.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Failed to create audit log", zap.String("action", action), zap.Error(err))
	}
}
