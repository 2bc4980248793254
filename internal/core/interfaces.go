package core

import (
	"context"

	"refvault-backend-go/internal/models"
)

// AccessResolver produces the access decision for a (vault, caller) pair.
type AccessResolver interface {
	// Resolve runs the full decision pipeline. It returns ErrVaultNotFound
	// when the vault is absent everywhere (terminal not-found, distinct from
	// a denied decision) and ErrSuperseded when a newer resolution for the
	// same (vault, caller) started while this one was in flight.
	Resolve(ctx context.Context, vaultID string, caller models.Caller) (*models.Resolution, error)
	// LastDecision returns the most recently published decision for the pair,
	// if any.
	LastDecision(ctx context.Context, vaultID string, caller models.Caller) (*models.AccessDecision, bool)
}

// ShareService manages explicit per-user grants on a vault.
type ShareService interface {
	Share(ctx context.Context, grantorID, vaultID string, req models.ShareVaultRequest) (*models.Share, error)
	UpdateRole(ctx context.Context, grantorID, shareID, role string) (*models.Share, error)
	Remove(ctx context.Context, grantorID, shareID string) error
	ListByVault(ctx context.Context, ownerID, vaultID string) ([]*models.Share, error)
}

// RequestService manages access requests for protected vaults.
type RequestService interface {
	Create(ctx context.Context, caller models.Caller, vaultID, note string) (*models.AccessRequest, error)
	// SetStatus approves or rejects a request. Approval also materializes a
	// viewer share for the requester; if the share write fails the request is
	// reverted to pending and the error returned.
	SetStatus(ctx context.Context, actorID, requestID, status string) (*models.AccessRequest, error)
	ListByVault(ctx context.Context, ownerID, vaultID string, statuses []string) ([]*models.AccessRequest, error)
}

// VaultService covers the owner-side vault record operations the access core
// needs: settings mutation and the server-side counters.
type VaultService interface {
	CreateVault(ctx context.Context, ownerID string, req models.CreateVaultRequest) (*models.Vault, error)
	UpdateVault(ctx context.Context, ownerID, vaultID string, req models.UpdateVaultRequest) (*models.Vault, error)
	ListVaults(ctx context.Context, ownerID string) ([]*models.Vault, error)
	RecordView(ctx context.Context, vaultID string) error
	RecordDownload(ctx context.Context, vaultID string) error
}

// UserService defines the interface for user profile operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID, creating the profile with the given
	// claims if it does not exist yet. The second return reports whether a
	// profile was created.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// AuditService defines the interface for audit logging operations.
type AuditService interface {
	CreateAuditLog(ctx context.Context, logEntry models.AuditLog) error
}
