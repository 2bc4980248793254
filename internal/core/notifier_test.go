package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refvault-backend-go/internal/db"
)

func TestNotifierArmSubscribesAllThreeFeeds(t *testing.T) {
	feed := newFakeChangeFeed()
	var fired []string
	notifier := NewNotifier(feed, zap.NewNop(), func(vaultID string) {
		fired = append(fired, vaultID)
	})

	require.NoError(t, notifier.Arm(context.Background(), "v1"))
	assert.Equal(t, 3, feed.activeCount())

	vaultID, armed := notifier.Armed()
	assert.True(t, armed)
	assert.Equal(t, "v1", vaultID)

	// Any of the three collections triggers a recompute with the vault id,
	// regardless of the event payload.
	feed.emit("vaults", db.ChangeEvent{Collection: "vaults", DocID: "v1", Kind: db.ChangeModified})
	feed.emit("vault_shares", db.ChangeEvent{Collection: "vault_shares", DocID: "s9", Kind: db.ChangeAdded})
	feed.emit("access_requests", db.ChangeEvent{Collection: "access_requests", DocID: "r2", Kind: db.ChangeRemoved})
	assert.Equal(t, []string{"v1", "v1", "v1"}, fired)
}

func TestNotifierDisarmStopsDelivery(t *testing.T) {
	feed := newFakeChangeFeed()
	fired := 0
	notifier := NewNotifier(feed, zap.NewNop(), func(string) { fired++ })

	require.NoError(t, notifier.Arm(context.Background(), "v1"))
	notifier.Disarm()

	assert.Equal(t, 0, feed.activeCount())
	_, armed := notifier.Armed()
	assert.False(t, armed)

	feed.emit("vaults", db.ChangeEvent{Collection: "vaults", DocID: "v1", Kind: db.ChangeModified})
	assert.Equal(t, 0, fired)

	// Disarming twice is harmless.
	notifier.Disarm()
}

func TestNotifierRearmSwitchesVault(t *testing.T) {
	feed := newFakeChangeFeed()
	var fired []string
	notifier := NewNotifier(feed, zap.NewNop(), func(vaultID string) {
		fired = append(fired, vaultID)
	})

	require.NoError(t, notifier.Arm(context.Background(), "v1"))
	require.NoError(t, notifier.Arm(context.Background(), "v2"))

	// The old vault's subscriptions are gone; only the new set is live.
	assert.Equal(t, 3, feed.activeCount())
	vaultID, armed := notifier.Armed()
	assert.True(t, armed)
	assert.Equal(t, "v2", vaultID)

	feed.emit("vaults", db.ChangeEvent{Collection: "vaults", Kind: db.ChangeModified})
	assert.Equal(t, []string{"v2"}, fired)
}

func TestNotifierArmRollsBackOnPartialFailure(t *testing.T) {
	feed := newFakeChangeFeed()
	feed.failOn = "access_requests"
	notifier := NewNotifier(feed, zap.NewNop(), func(string) {})

	err := notifier.Arm(context.Background(), "v1")
	require.Error(t, err)

	// The two subscriptions that succeeded before the failure were torn down.
	assert.Equal(t, 0, feed.activeCount())
	_, armed := notifier.Armed()
	assert.False(t, armed)
}
