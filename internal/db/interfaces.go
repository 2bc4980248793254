package db

import (
	"context"

	"refvault-backend-go/internal/models"
)

// UserRepository defines the interface for user profile storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// VaultRepository defines the interface for vault storage operations.
// GetByID is subject to the store's row-level read policy: a hidden vault and
// an absent vault both return ErrNotFound.
type VaultRepository interface {
	Create(ctx context.Context, vault *models.Vault) (string, error) // Returns new vault ID
	GetByID(ctx context.Context, vaultID string) (*models.Vault, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*models.Vault, error)
	Update(ctx context.Context, vault *models.Vault) error
	Delete(ctx context.Context, vaultID string) error
	IncrementViewCount(ctx context.Context, vaultID string) error
	IncrementDownloadCount(ctx context.Context, vaultID string) error
}

// ShareRepository defines the interface for vault share storage operations.
type ShareRepository interface {
	Create(ctx context.Context, share *models.Share) (string, error) // Returns new share ID
	GetByID(ctx context.Context, shareID string) (*models.Share, error)
	Update(ctx context.Context, share *models.Share) error
	Delete(ctx context.Context, shareID string) error
	ListByVault(ctx context.Context, vaultID string) ([]*models.Share, error)
	// FindByVaultAndUser returns the newest share for (vault, user), or
	// ErrNotFound. Newest-wins is the duplicate policy.
	FindByVaultAndUser(ctx context.Context, vaultID, userID string) (*models.Share, error)
	FindByVaultAndEmail(ctx context.Context, vaultID, email string) (*models.Share, error)
}

// RequestRepository defines the interface for access request storage
// operations.
type RequestRepository interface {
	Create(ctx context.Context, req *models.AccessRequest) (string, error) // Returns new request ID
	GetByID(ctx context.Context, requestID string) (*models.AccessRequest, error)
	Update(ctx context.Context, req *models.AccessRequest) error
	ListByVault(ctx context.Context, vaultID string, statuses []string) ([]*models.AccessRequest, error)
	// FindActiveByVaultAndUser returns the newest pending or approved request
	// for (vault, user), or ErrNotFound.
	FindActiveByVaultAndUser(ctx context.Context, vaultID, userID string) (*models.AccessRequest, error)
	// ExistsByVault reports whether any request references the vault. Used by
	// the existence probe; the requests collection carries looser read
	// visibility than the vault record itself.
	ExistsByVault(ctx context.Context, vaultID string) (bool, error)
	DeleteByVaultAndUser(ctx context.Context, vaultID, userID string) error
}

// PublicationRepository defines the interface for vault-publication
// membership storage operations. Only the piece the access core needs is
// modeled here; publication CRUD itself lives elsewhere.
type PublicationRepository interface {
	ExistsByVault(ctx context.Context, vaultID string) (bool, error)
}

// AuditRepository defines the interface for audit log storage operations.
type AuditRepository interface {
	Create(ctx context.Context, logEntry models.AuditLog) error
}

// ChangeKind classifies a change feed event.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeEvent is a single row-level mutation delivered by the change feed.
// Delivery is at-least-once, best-effort; no ordering is guaranteed across
// subscriptions.
type ChangeEvent struct {
	Collection string
	DocID      string
	Kind       ChangeKind
}

// FeedHandle identifies an active change feed subscription.
type FeedHandle interface {
	Unsubscribe()
}

// ChangeFeed delivers server-pushed mutation events scoped to a vault, one
// subscription per collection of interest.
type ChangeFeed interface {
	SubscribeVault(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error)
	SubscribeShares(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error)
	SubscribeRequests(ctx context.Context, vaultID string, onEvent func(ChangeEvent)) (FeedHandle, error)
}
