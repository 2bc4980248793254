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

// Custom errors for the request service.
var (
	ErrRequestNotFound      = errors.New("access request not found")
	ErrInvalidRequestStatus = errors.New("invalid status for an access request transition")
	ErrRequestSettled       = errors.New("access request has already been settled")
	ErrOwnerCannotRequest   = errors.New("owner cannot request access to their own vault")
	ErrAnonymousRequest     = errors.New("an identity is required to request access")
)

// requestService implements the RequestService interface.
type requestService struct {
	vaultRepo    db.VaultRepository
	shareRepo    db.ShareRepository
	requestRepo  db.RequestRepository
	auditService AuditService
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewRequestService creates a new RequestService instance.
func NewRequestService(
	vr db.VaultRepository,
	sr db.ShareRepository,
	rr db.RequestRepository,
	as AuditService,
	pub events.Publisher,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		vaultRepo:    vr,
		shareRepo:    sr,
		requestRepo:  rr,
		auditService: as,
		publisher:    pub,
		logger:       logger,
	}
}

// Create files an access request for the caller. A duplicate create while an
// active (pending or approved) request exists returns the existing request
// rather than inserting a second one.
func (s *requestService) Create(ctx context.Context, caller models.Caller, vaultID, note string) (*models.AccessRequest, error) {
	if caller.IsAnonymous() {
		return nil, ErrAnonymousRequest
	}
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for Create")
	}

	// The vault row may be hidden from the requester, so a failed read does
	// not block the request. When it is readable, owners are turned away.
	vault, err := s.vaultRepo.GetByID(ctx, vaultID)
	if err == nil && vault.OwnerID == caller.UserID {
		return nil, ErrOwnerCannotRequest
	}

	existing, err := s.requestRepo.FindActiveByVaultAndUser(ctx, vaultID, caller.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing request: %w", err)
	}

	req := &models.AccessRequest{
		VaultID:   vaultID,
		UserID:    caller.UserID,
		Name:      caller.DisplayName,
		Email:     caller.Email,
		Note:      note,
		Status:    models.RequestPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create access request: %w", err)
	}

	s.audit(ctx, caller.UserID, "REQUEST_CREATE", vaultID, map[string]interface{}{
		"request_id": req.ID,
	})
	s.emit(events.NewAccessEvent(events.TypeRequestCreated, vaultID, caller.UserID, caller.UserID))

	return req, nil
}

// SetStatus approves or rejects a pending request. Approval is a two-step
// transaction script: the request is marked approved first, then a viewer
// share is materialized for the requester. If the share write fails, the
// request is reverted to pending so the owner can retry; if even the revert
// fails, the request stays approved with no share, which the resolver
// tolerates (an approved request grants viewer on its own).
func (s *requestService) SetStatus(ctx context.Context, actorID, requestID, status string) (*models.AccessRequest, error) {
	if status != models.RequestApproved && status != models.RequestRejected {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRequestStatus, status)
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrRequestNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to get access request '%s': %w", requestID, err)
	}
	if req.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: '%s' is %s", ErrRequestSettled, requestID, req.Status)
	}

	vault, err := s.ownedVault(ctx, actorID, req.VaultID)
	if err != nil {
		return nil, err
	}

	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to update access request '%s': %w", requestID, err)
	}

	if status == models.RequestApproved {
		share := &models.Share{
			VaultID:     vault.ID,
			UserID:      req.UserID,
			Email:       req.Email,
			GrantedBy:   actorID,
			Role:        models.RoleViewer,
			DisplayName: req.Name,
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := s.shareRepo.Create(ctx, share); err != nil {
			req.Status = models.RequestPending
			req.UpdatedAt = time.Now().UTC()
			if revertErr := s.requestRepo.Update(ctx, req); revertErr != nil {
				s.logger.Error("Failed to revert request after share creation failure",
					zap.String("request_id", requestID),
					zap.Error(revertErr),
				)
			}
			return nil, fmt.Errorf("failed to materialize share for approved request '%s': %w", requestID, err)
		}
	}

	action := "REQUEST_APPROVE"
	eventType := events.TypeRequestApproved
	if status == models.RequestRejected {
		action = "REQUEST_REJECT"
		eventType = events.TypeRequestRejected
	}
	s.audit(ctx, actorID, action, req.VaultID, map[string]interface{}{
		"request_id": req.ID,
		"requester":  req.UserID,
	})
	s.emit(events.NewAccessEvent(eventType, req.VaultID, actorID, req.UserID))

	return req, nil
}

// ListByVault lists access requests for a vault, optionally filtered by
// status. Owner only.
func (s *requestService) ListByVault(ctx context.Context, ownerID, vaultID string, statuses []string) ([]*models.AccessRequest, error) {
	if _, err := s.ownedVault(ctx, ownerID, vaultID); err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if !models.IsValidRequestStatus(st) {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidRequestStatus, st)
		}
	}
	requests, err := s.requestRepo.ListByVault(ctx, vaultID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests for vault '%s': %w", vaultID, err)
	}
	return requests, nil
}

func (s *requestService) ownedVault(ctx context.Context, actorID, vaultID string) (*models.Vault, error) {
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

func (s *requestService) audit(ctx context.Context, actorID, action, vaultID string, details map[string]interface{}) {
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

func (s *requestService) emit(event events.AccessEvent) {
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("Failed to publish access event",
			zap.String("type", event.Type), zap.Error(err))
	}
}
