package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refvault-backend-go/internal/events"
	"refvault-backend-go/internal/models"
)

type shareFixture struct {
	service   ShareService
	vaults    *fakeVaultRepo
	shares    *fakeShareRepo
	requests  *fakeRequestRepo
	users     *fakeUserRepo
	audits    *fakeAuditRepo
	publisher *recordingPublisher
}

func newShareFixture() *shareFixture {
	vaults := newFakeVaultRepo()
	shares := newFakeShareRepo()
	requests := newFakeRequestRepo()
	users := newFakeUserRepo()
	audits := &fakeAuditRepo{}
	publisher := &recordingPublisher{}

	service := NewShareService(vaults, shares, requests, users,
		NewAuditService(audits), publisher, zap.NewNop())

	f := &shareFixture{
		service:   service,
		vaults:    vaults,
		shares:    shares,
		requests:  requests,
		users:     users,
		audits:    audits,
		publisher: publisher,
	}
	_, _ = vaults.Create(context.Background(), &models.Vault{
		ID: "v1", OwnerID: "owner-1", Name: "Survey papers", Visibility: models.VisibilityPrivate,
	})
	return f
}

func TestShareDenormalizesGranteeProfile(t *testing.T) {
	f := newShareFixture()
	require.NoError(t, f.users.Create(context.Background(), &models.User{
		ID: "bob", Email: "bob@example.com", DisplayName: "Bob B.",
	}))

	share, err := f.service.Share(context.Background(), "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bob B.", share.DisplayName)
	assert.Equal(t, "bob@example.com", share.Email)
	assert.Equal(t, "owner-1", share.GrantedBy)
	assert.Equal(t, []string{events.TypeShareGranted}, f.publisher.types())
	assert.Equal(t, []string{"VAULT_SHARE"}, f.audits.actions())
}

func TestShareWithoutProfileStillSucceeds(t *testing.T) {
	f := newShareFixture()

	share, err := f.service.Share(context.Background(), "owner-1", "v1", models.ShareVaultRequest{
		Email: "future@example.com", Role: models.RoleViewer,
	})
	require.NoError(t, err)
	assert.Empty(t, share.DisplayName)
	assert.Equal(t, "future@example.com", share.Email)
}

func TestShareValidation(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	_, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{UserID: "bob", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidShareRole)

	_, err = f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrInvalidGrantee)

	_, err = f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Email: "bob@example.com", Role: models.RoleViewer,
	})
	assert.ErrorIs(t, err, ErrInvalidGrantee)

	_, err = f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{UserID: "owner-1", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrCannotShareWithSelf)

	_, err = f.service.Share(ctx, "intruder", "v1", models.ShareVaultRequest{UserID: "bob", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrForbiddenAccess)

	_, err = f.service.Share(ctx, "owner-1", "missing", models.ShareVaultRequest{UserID: "bob", Role: models.RoleViewer})
	assert.ErrorIs(t, err, ErrVaultNotFound)
}

func TestShareDuplicateUpdatesInPlace(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	first, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	second, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleEditor,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.RoleEditor, second.Role)
	assert.Equal(t, 1, f.shares.count())
}

func TestUpdateRole(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	share, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateRole(ctx, "owner-1", share.ID, models.RoleEditor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, updated.Role)

	_, err = f.service.UpdateRole(ctx, "owner-1", "missing", models.RoleViewer)
	assert.ErrorIs(t, err, ErrShareNotFound)

	_, err = f.service.UpdateRole(ctx, "intruder", share.ID, models.RoleViewer)
	assert.ErrorIs(t, err, ErrForbiddenAccess)
}

func TestRemoveShareAlsoDeletesRequests(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	share, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	// An approved request left behind would re-grant viewer on its own.
	_, err = f.requests.Create(ctx, &models.AccessRequest{
		VaultID: "v1", UserID: "bob", Status: models.RequestApproved, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, f.service.Remove(ctx, "owner-1", share.ID))
	assert.Equal(t, 0, f.shares.count())
	assert.Equal(t, 0, f.requests.count())
	assert.Contains(t, f.publisher.types(), events.TypeShareRevoked)
}

func TestRemoveShareToleratesRequestCleanupFailure(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	share, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	f.requests.delErr = errors.New("backend unavailable")
	require.NoError(t, f.service.Remove(ctx, "owner-1", share.ID))
	assert.Equal(t, 0, f.shares.count())
}

func TestListSharesOwnerOnly(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	_, err := f.service.Share(ctx, "owner-1", "v1", models.ShareVaultRequest{
		UserID: "bob", Role: models.RoleViewer,
	})
	require.NoError(t, err)

	shares, err := f.service.ListByVault(ctx, "owner-1", "v1")
	require.NoError(t, err)
	assert.Len(t, shares, 1)

	_, err = f.service.ListByVault(ctx, "bob", "v1")
	assert.ErrorIs(t, err, ErrForbiddenAccess)
}
