package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"refvault-backend-go/internal/cache"
	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/models"
)

// Custom errors for the access resolver.
var (
	// ErrVaultNotFound means the vault is absent everywhere: the direct read
	// found no row and no subordinate record proves it exists. This is
	// terminal and distinct from a denied decision, which implies a
	// confirmed-existing but inaccessible vault.
	ErrVaultNotFound = errors.New("vault not found")
	// ErrSuperseded means a newer resolution for the same (vault, caller)
	// started while this one was in flight; the result was discarded.
	ErrSuperseded = errors.New("resolution superseded by a newer one")
)

// stubVaultName is the placeholder name on a synthesized record for a vault
// that exists but is hidden from the caller.
const stubVaultName = "Restricted vault"

// decisionCacheTTL bounds how long a published decision may outlive its
// resolution. A stale entry is corrected by the next resolve.
const decisionCacheTTL = time.Hour

// accessResolver implements the AccessResolver interface.
type accessResolver struct {
	vaultRepo   db.VaultRepository
	shareRepo   db.ShareRepository
	requestRepo db.RequestRepository
	probe       *ExistenceProbe
	decisions   cache.Cache
	logger      *zap.Logger

	mu     sync.Mutex
	epochs map[string]uint64
}

// NewAccessResolver creates a new AccessResolver instance.
func NewAccessResolver(
	vr db.VaultRepository,
	sr db.ShareRepository,
	rr db.RequestRepository,
	probe *ExistenceProbe,
	decisions cache.Cache,
	logger *zap.Logger,
) AccessResolver {
	return &accessResolver{
		vaultRepo:   vr,
		shareRepo:   sr,
		requestRepo: rr,
		probe:       probe,
		decisions:   decisions,
		logger:      logger,
		epochs:      make(map[string]uint64),
	}
}

// Resolve runs the decision pipeline for (vaultID, caller). A new call for
// the same pair supersedes an in-flight one: the older call's completion is
// discarded rather than applied, and it returns ErrSuperseded.
func (r *accessResolver) Resolve(ctx context.Context, vaultID string, caller models.Caller) (*models.Resolution, error) {
	if vaultID == "" {
		return nil, errors.New("vaultID cannot be empty for Resolve")
	}

	key := decisionKey(vaultID, caller)
	epoch := r.bumpEpoch(key)

	res, err := r.resolveOnce(ctx, vaultID, caller)
	if err != nil {
		if r.currentEpoch(key) != epoch {
			return nil, ErrSuperseded
		}
		return nil, err
	}

	if !r.publishIfCurrent(ctx, key, epoch, res.Decision) {
		return nil, ErrSuperseded
	}
	return res, nil
}

// LastDecision returns the most recently published decision for the pair.
func (r *accessResolver) LastDecision(ctx context.Context, vaultID string, caller models.Caller) (*models.AccessDecision, bool) {
	raw, err := r.decisions.Get(ctx, decisionKey(vaultID, caller))
	if err != nil || raw == "" {
		return nil, false
	}
	var decision models.AccessDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, false
	}
	return &decision, true
}

// resolveOnce is one pass through the pipeline of direct read, existence
// disambiguation and the visibility policy. Transport failures at any step
// collapse to a denied decision: the resolver never reveals why access
// failed, so that unauthorized callers cannot distinguish private-but-real
// from broken.
func (r *accessResolver) resolveOnce(ctx context.Context, vaultID string, caller models.Caller) (*models.Resolution, error) {
	vault, stub, err := r.loadVault(ctx, vaultID)
	if err != nil {
		if errors.Is(err, ErrVaultNotFound) {
			return nil, err
		}
		r.logger.Warn("Direct vault read failed, collapsing to denied",
			zap.String("vault_id", vaultID), zap.Error(err))
		return deniedResolution(), nil
	}

	input := PolicyInput{
		Anonymous:  caller.IsAnonymous(),
		IsOwner:    !caller.IsAnonymous() && vault.OwnerID != "" && vault.OwnerID == caller.UserID,
		Visibility: vault.Visibility,
	}

	// Share and request lookups only matter for identified non-owners.
	if !input.Anonymous && !input.IsOwner {
		role, err := r.lookupShareRole(ctx, vaultID, caller)
		if err != nil {
			r.logger.Warn("Share lookup failed, collapsing to denied",
				zap.String("vault_id", vaultID), zap.Error(err))
			return deniedResolution(), nil
		}
		input.ShareRole = role

		if role == "" {
			status, err := r.lookupRequestStatus(ctx, vaultID, caller.UserID)
			if err != nil {
				r.logger.Warn("Request lookup failed, collapsing to denied",
					zap.String("vault_id", vaultID), zap.Error(err))
				return deniedResolution(), nil
			}
			input.RequestStatus = status
		}
	}

	decision := DecideAccess(input)

	res := &models.Resolution{Decision: decision, Stub: stub}
	// The vault record rides along when the caller may view it, or when only
	// a stub could be established (existence without content).
	if decision.CanView || stub {
		res.Vault = vault
	}
	return res, nil
}

// loadVault performs the direct read and, when that yields no row, the
// existence disambiguation. The returned bool marks a synthesized stub.
func (r *accessResolver) loadVault(ctx context.Context, vaultID string) (*models.Vault, bool, error) {
	vault, err := r.vaultRepo.GetByID(ctx, vaultID)
	if err == nil {
		return vault, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("direct vault read: %w", err)
	}

	// No row: either the vault does not exist or the read policy hides it.
	// Subordinate collections with looser visibility settle which.
	if !r.probe.Exists(ctx, vaultID) {
		return nil, false, ErrVaultNotFound
	}
	return &models.Vault{
		ID:         vaultID,
		Name:       stubVaultName,
		Visibility: models.VisibilityProtected,
	}, true, nil
}

// lookupShareRole finds the caller's explicit share, by user id first and by
// email second. Empty string means no share.
func (r *accessResolver) lookupShareRole(ctx context.Context, vaultID string, caller models.Caller) (string, error) {
	share, err := r.shareRepo.FindByVaultAndUser(ctx, vaultID, caller.UserID)
	if err == nil {
		return share.Role, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("share lookup by user: %w", err)
	}

	if caller.Email == "" {
		return "", nil
	}
	share, err = r.shareRepo.FindByVaultAndEmail(ctx, vaultID, caller.Email)
	if err == nil {
		return share.Role, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("share lookup by email: %w", err)
	}
	return "", nil
}

// lookupRequestStatus finds the caller's active request. Empty string means
// no active request.
func (r *accessResolver) lookupRequestStatus(ctx context.Context, vaultID, userID string) (string, error) {
	req, err := r.requestRepo.FindActiveByVaultAndUser(ctx, vaultID, userID)
	if err == nil {
		return req.Status, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("request lookup: %w", err)
	}
	return "", nil
}

// publishIfCurrent publishes the decision only if epoch is still the newest
// for key, and reports whether it was. The staleness check and the cache write
// share one critical section; a completion that loses the race after checking
// could otherwise overwrite a newer published decision.
func (r *accessResolver) publishIfCurrent(ctx context.Context, key string, epoch uint64, decision models.AccessDecision) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epochs[key] != epoch {
		return false
	}
	raw, err := json.Marshal(decision)
	if err != nil {
		return true
	}
	if err := r.decisions.Set(ctx, key, string(raw), decisionCacheTTL); err != nil {
		r.logger.Warn("Failed to publish access decision", zap.String("key", key), zap.Error(err))
	}
	return true
}

func (r *accessResolver) bumpEpoch(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epochs[key]++
	return r.epochs[key]
}

func (r *accessResolver) currentEpoch(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.epochs[key]
}

func decisionKey(vaultID string, caller models.Caller) string {
	if caller.IsAnonymous() {
		return "access:" + vaultID + ":anon"
	}
	return "access:" + vaultID + ":" + caller.UserID
}

func deniedResolution() *models.Resolution {
	return &models.Resolution{Decision: models.AccessDecision{Status: models.StatusDenied}}
}
