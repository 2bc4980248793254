package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/events"
	"refvault-backend-go/internal/models"
)

// Custom errors for the share service.
var (
	ErrForbiddenAccess     = errors.New("user does not have permission for this action on the vault")
	ErrShareNotFound       = errors.New("share not found")
	ErrInvalidShareRole    = errors.New("invalid role specified for sharing")
	ErrCannotShareWithSelf = errors.New("cannot share vault with oneself")
	ErrInvalidGrantee      = errors.New("exactly one of userId or email must be provided")
)

// shareService implements the ShareService interface.
type shareService struct {
	vaultRepo    db.VaultRepository
	shareRepo    db.ShareRepository
	requestRepo  db.RequestRepository
	userRepo     db.UserRepository
	auditService AuditService
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewShareService creates a new ShareService instance.
func NewShareService(
	vr db.VaultRepository,
	sr db.ShareRepository,
	rr db.RequestRepository,
	ur db.UserRepository,
	as AuditService,
	pub events.Publisher,
	logger *zap.Logger,
) ShareService {
	return &shareService{
		vaultRepo:    vr,
		shareRepo:    sr,
		requestRepo:  rr,
		userRepo:     ur,
		auditService: as,
		publisher:    pub,
		logger:       logger,
	}
}

// Share grants a role on a vault to a user or an email address. The grantee's
// display name is denormalized from their profile at write time and never
// re-synced afterwards; a later rename does not update existing shares. A
// second grant to the same grantee updates the existing share in place.
func (s *shareService) Share(ctx context.Context, grantorID, vaultID string, req models.ShareVaultRequest) (*models.Share, error) {
	vault, err := s.ownedVault(ctx, grantorID, vaultID)
	if err != nil {
		return nil, err
	}

	if !models.IsValidShareRole(req.Role) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidShareRole, req.Role)
	}
	if (req.UserID == "") == (req.Email == "") {
		return nil, ErrInvalidGrantee
	}
	if req.UserID == grantorID {
		return nil, ErrCannotShareWithSelf
	}

	share := &models.Share{
		VaultID:   vault.ID,
		UserID:    req.UserID,
		Email:     req.Email,
		GrantedBy: grantorID,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	}

	// Cache the grantee's display name for rendering. A missing profile is
	// fine: the grant may predate signup.
	if req.UserID != "" {
		grantee, err := s.userRepo.GetByID(ctx, req.UserID)
		if err == nil {
			share.DisplayName = grantee.DisplayName
			if share.Email == "" {
				share.Email = grantee.Email
			}
		} else if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("failed to resolve grantee profile '%s': %w", req.UserID, err)
		}
	}

	// Duplicate grant: update the existing share instead of inserting a
	// second row for the same grantee.
	existing, err := s.findExisting(ctx, vaultID, req.UserID, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Role = req.Role
		if share.DisplayName != "" {
			existing.DisplayName = share.DisplayName
		}
		if err := s.shareRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update existing share '%s': %w", existing.ID, err)
		}
		share = existing
	} else {
		if _, err := s.shareRepo.Create(ctx, share); err != nil {
			return nil, fmt.Errorf("failed to create share: %w", err)
		}
	}

	s.audit(ctx, grantorID, "VAULT_SHARE", vault.ID, map[string]interface{}{
		"share_id": share.ID,
		"grantee":  granteeLabel(share),
		"role":     share.Role,
	})
	s.emit(events.NewAccessEvent(events.TypeShareGranted, vault.ID, grantorID, share.UserID))

	return share, nil
}

// UpdateRole changes the role on an existing share.
func (s *shareService) UpdateRole(ctx context.Context, grantorID, shareID, role string) (*models.Share, error) {
	if !models.IsValidShareRole(role) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidShareRole, role)
	}

	share, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrShareNotFound, shareID)
		}
		return nil, fmt.Errorf("failed to get share '%s': %w", shareID, err)
	}

	if _, err := s.ownedVault(ctx, grantorID, share.VaultID); err != nil {
		return nil, err
	}

	share.Role = role
	if err := s.shareRepo.Update(ctx, share); err != nil {
		return nil, fmt.Errorf("failed to update share '%s': %w", shareID, err)
	}

	s.audit(ctx, grantorID, "VAULT_SHARE_UPDATE_ROLE", share.VaultID, map[string]interface{}{
		"share_id": share.ID,
		"grantee":  granteeLabel(share),
		"new_role": role,
	})
	s.emit(events.NewAccessEvent(events.TypeShareUpdated, share.VaultID, grantorID, share.UserID))

	return share, nil
}

// Remove revokes a share. Outstanding access requests from the same grantee
// are deleted too, so the two registries cannot disagree about the grantee's
// status afterwards.
func (s *shareService) Remove(ctx context.Context, grantorID, shareID string) error {
	share, err := s.shareRepo.GetByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: '%s'", ErrShareNotFound, shareID)
		}
		return fmt.Errorf("failed to get share '%s': %w", shareID, err)
	}

	if _, err := s.ownedVault(ctx, grantorID, share.VaultID); err != nil {
		return err
	}

	if err := s.shareRepo.Delete(ctx, shareID); err != nil {
		return fmt.Errorf("failed to delete share '%s': %w", shareID, err)
	}

	if share.UserID != "" {
		if err := s.requestRepo.DeleteByVaultAndUser(ctx, share.VaultID, share.UserID); err != nil {
			// The share is gone; a leftover request only re-offers the
			// pending state and will be cleaned up on the next revoke.
			s.logger.Warn("Failed to delete access requests after share removal",
				zap.String("vault_id", share.VaultID),
				zap.String("user_id", share.UserID),
				zap.Error(err),
			)
		}
	}

	s.audit(ctx, grantorID, "VAULT_SHARE_REMOVE", share.VaultID, map[string]interface{}{
		"share_id": share.ID,
		"grantee":  granteeLabel(share),
	})
	s.emit(events.NewAccessEvent(events.TypeShareRevoked, share.VaultID, grantorID, share.UserID))

	return nil
}

// ListByVault lists all shares on a vault. Owner only.
func (s *shareService) ListByVault(ctx context.Context, ownerID, vaultID string) ([]*models.Share, error) {
	if _, err := s.ownedVault(ctx, ownerID, vaultID); err != nil {
		return nil, err
	}
	shares, err := s.shareRepo.ListByVault(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares for vault '%s': %w", vaultID, err)
	}
	return shares, nil
}

// ownedVault loads the vault and verifies the actor owns it.
func (s *shareService) ownedVault(ctx context.Context, actorID, vaultID string) (*models.Vault, error) {
	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrVaultNotFound, vaultID)
		}
		return nil, fmt.Errorf("failed to get vault '%s': %w", vaultID, err)
	}
	if vault.OwnerID != actorID {
		return nil, fmt.Errorf("%w: user '%s' is not owner of vault '%s'", ErrForbiddenAccess, actorID, vaultID)
	}
	return vault, nil
}

func (s *shareService) findExisting(ctx context.Context, vaultID, userID, email string) (*models.Share, error) {
	var existing *models.Share
	var err error
	if userID != "" {
		existing, err = s.shareRepo.FindByVaultAndUser(ctx, vaultID, userID)
	} else {
		existing, err = s.shareRepo.FindByVaultAndEmail(ctx, vaultID, email)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up existing share: %w", err)
	}
	return existing, nil
}

func (s *shareService) audit(ctx context.Context, actorID, action, vaultID string, details map[string]interface{}) {
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

func (s *shareService) emit(event events.AccessEvent) {
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("Failed to publish access event",
			zap.String("type", event.Type), zap.Error(err))
	}
}

func granteeLabel(share *models.Share) string {
	if share.UserID != "" {
		return share.UserID
	}
	return share.Email
}
