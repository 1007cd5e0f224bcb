package wizard

import (
	"context"
	"testing"

	"masu/models"

	"github.com/stretchr/testify/require"
)

func testIdentity() models.PartialIdentity {
	return models.PartialIdentity{
		FirstName: "Noa", LastName: "Levi",
		Email: "noa@example.com", Phone: "0501234567",
	}
}

func TestEnsureIdentityCreatesGuestOnce(t *testing.T) {
	dir := newFakeGuestDirectory()
	handles := newFakeHandleStore()
	mgr := NewGuestIdentityManager(dir, handles)
	ctx := context.Background()

	h1, err := mgr.EnsureIdentity(ctx, "device-1", testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, h1.ID)
	require.NotEmpty(t, h1.Secret, "secret returned on creation")

	h2, err := mgr.EnsureIdentity(ctx, "device-1", testIdentity())
	require.NoError(t, err)
	require.Equal(t, h1.ID, h2.ID)
	require.Empty(t, h2.Secret, "secret never returned twice")
	require.Equal(t, 1, dir.created)
}

func TestEnsureIdentityDedupesByEmailAcrossDevices(t *testing.T) {
	dir := newFakeGuestDirectory()
	mgr := NewGuestIdentityManager(dir, newFakeHandleStore())
	ctx := context.Background()

	h1, err := mgr.EnsureIdentity(ctx, "device-1", testIdentity())
	require.NoError(t, err)

	h2, err := mgr.EnsureIdentity(ctx, "device-2", testIdentity())
	require.NoError(t, err)

	require.Equal(t, h1.ID, h2.ID, "same email maps to one guest record")
	require.Equal(t, 1, dir.created)
}

func TestRecoverChecksSecret(t *testing.T) {
	dir := newFakeGuestDirectory()
	handles := newFakeHandleStore()
	mgr := NewGuestIdentityManager(dir, handles)
	ctx := context.Background()

	h, err := mgr.EnsureIdentity(ctx, "device-1", testIdentity())
	require.NoError(t, err)

	guest, err := mgr.Recover(ctx, "device-1", h.Secret)
	require.NoError(t, err)
	require.NotNil(t, guest)
	require.Equal(t, h.ID, guest.ID)

	guest, err = mgr.Recover(ctx, "device-1", "wrong-secret")
	require.NoError(t, err)
	require.Nil(t, guest)

	guest, err = mgr.Recover(ctx, "unknown-device", h.Secret)
	require.NoError(t, err)
	require.Nil(t, guest)
}

func TestClearSeversHandleOnly(t *testing.T) {
	dir := newFakeGuestDirectory()
	handles := newFakeHandleStore()
	mgr := NewGuestIdentityManager(dir, handles)
	ctx := context.Background()

	h, err := mgr.EnsureIdentity(ctx, "device-1", testIdentity())
	require.NoError(t, err)
	require.NoError(t, mgr.Clear(ctx, "device-1"))

	got, err := mgr.Lookup(ctx, "device-1")
	require.NoError(t, err)
	require.Nil(t, got)

	// The directory record survives the unlink.
	guest, err := dir.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.NotNil(t, guest)
}
