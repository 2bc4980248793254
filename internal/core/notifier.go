package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"refvault-backend-go/internal/db"
)

// Notifier arms change feed subscriptions against a resolved vault and turns
// any delivered event into a full recompute trigger. It deliberately ignores
// event payloads: re-deriving a decision from a partial view risks applying a
// stale signal, so every event forces a complete re-resolution.
//
// State machine per notifier: unarmed -> armed -> unarmed. Arming against a
// new vault id disarms the previous subscriptions first.
type Notifier struct {
	feed   db.ChangeFeed
	logger *zap.Logger

	mu      sync.Mutex
	vaultID string
	handles []db.FeedHandle

	// onChange receives the vault id whose signals changed. The callback runs
	// on the feed's delivery goroutine and must not block.
	onChange func(vaultID string)
}

// NewNotifier creates an unarmed Notifier. onChange is invoked once per
// delivered event, across all three feeds.
func NewNotifier(feed db.ChangeFeed, logger *zap.Logger, onChange func(vaultID string)) *Notifier {
	return &Notifier{feed: feed, logger: logger, onChange: onChange}
}

// Arm subscribes the vault document, its shares and its requests. Any
// previously armed vault is disarmed first. If one subscription fails, the
// ones already established are torn down and the notifier stays unarmed.
func (n *Notifier) Arm(ctx context.Context, vaultID string) error {
	if vaultID == "" {
		return errors.New("vaultID cannot be empty for Arm")
	}

	n.Disarm()

	n.mu.Lock()
	defer n.mu.Unlock()

	deliver := func(db.ChangeEvent) {
		n.onChange(vaultID)
	}

	subscribes := []func(context.Context, string, func(db.ChangeEvent)) (db.FeedHandle, error){
		n.feed.SubscribeVault,
		n.feed.SubscribeShares,
		n.feed.SubscribeRequests,
	}

	var handles []db.FeedHandle
	for _, subscribe := range subscribes {
		handle, err := subscribe(ctx, vaultID, deliver)
		if err != nil {
			for _, h := range handles {
				h.Unsubscribe()
			}
			return err
		}
		handles = append(handles, handle)
	}

	n.vaultID = vaultID
	n.handles = handles
	n.logger.Debug("Change notifier armed", zap.String("vault_id", vaultID))
	return nil
}

// Disarm tears down all feed subscriptions. Safe to call when unarmed.
func (n *Notifier) Disarm() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.handles) == 0 {
		return
	}
	for _, h := range n.handles {
		h.Unsubscribe()
	}
	n.logger.Debug("Change notifier disarmed", zap.String("vault_id", n.vaultID))
	n.handles = nil
	n.vaultID = ""
}

// Armed reports whether the notifier currently holds subscriptions, and for
// which vault.
func (n *Notifier) Armed() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.vaultID, len(n.handles) > 0
}
