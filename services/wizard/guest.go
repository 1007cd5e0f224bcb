package wizard

import (
	"context"
	"time"

	"masu/models"
	"masu/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// GuestIdentityManager owns the guest handle lifecycle: idempotent bootstrap
// after the identity step, recovery on a later visit, and explicit teardown.
type GuestIdentityManager struct {
	directory GuestDirectory
	handles   HandleStore
}

func NewGuestIdentityManager(directory GuestDirectory, handles HandleStore) *GuestIdentityManager {
	return &GuestIdentityManager{directory: directory, handles: handles}
}

// EnsureIdentity bootstraps a guest identity for the visitor, reusing the
// handle already bound to clientKey when one exists. Calling it twice with
// the same key yields the same guest; the directory additionally dedupes by
// email, so a returning guest on a fresh device still maps to one record.
func (g *GuestIdentityManager) EnsureIdentity(ctx context.Context, clientKey string, identity models.PartialIdentity) (*models.GuestIdentityHandle, error) {
	logger := utils.GetLogger()

	if existing, err := g.handles.Load(ctx, clientKey); err == nil && existing != nil {
		if _, err := g.directory.GetByID(ctx, existing.ID); err == nil {
			logger.Debug("Reusing existing guest handle", zap.String("guestId", existing.ID))
			return &models.GuestIdentityHandle{ID: existing.ID}, nil
		}
		// Stale handle pointing at a purged guest; fall through and rebuild.
		_ = g.handles.Clear(ctx, clientKey)
	}

	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	candidate := &models.GuestIdentity{
		ID:         uuid.NewString(),
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Email:      identity.Email,
		Phone:      identity.Phone,
		BirthDate:  identity.BirthDate,
		Gender:     identity.Gender,
		SecretHash: string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	guest, created, err := g.directory.FindOrCreate(ctx, candidate)
	if err != nil {
		logger.Error("Guest bootstrap failed", zap.Error(err))
		return nil, err
	}

	handle := models.GuestIdentityHandle{ID: guest.ID, Secret: secret}
	if err := g.handles.Save(ctx, clientKey, handle); err != nil {
		logger.Warn("Failed to persist guest handle", zap.String("guestId", guest.ID), zap.Error(err))
	}

	logger.Info("Guest identity ensured",
		zap.String("guestId", guest.ID),
		zap.Bool("created", created))
	return &handle, nil
}

// Recover loads the guest bound to clientKey and checks the presented secret
// against the stored hash. A missing handle or a wrong secret both come back
// as nil without error detail, so callers cannot probe for handles.
func (g *GuestIdentityManager) Recover(ctx context.Context, clientKey, secret string) (*models.GuestIdentity, error) {
	handle, err := g.handles.Load(ctx, clientKey)
	if err != nil || handle == nil {
		return nil, nil
	}
	guest, err := g.directory.GetByID(ctx, handle.ID)
	if err != nil || guest == nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(guest.SecretHash), []byte(secret)) != nil {
		utils.GetLogger().Warn("Guest recovery rejected", zap.String("guestId", handle.ID))
		return nil, nil
	}
	return guest, nil
}

// Lookup returns the guest bound to clientKey without checking the secret.
// Used to decide whether a recovery offer should be shown at all.
func (g *GuestIdentityManager) Lookup(ctx context.Context, clientKey string) (*models.GuestIdentityHandle, error) {
	return g.handles.Load(ctx, clientKey)
}

// Clear severs the client's handle binding. The directory record survives;
// only the device-side continuity is dropped.
func (g *GuestIdentityManager) Clear(ctx context.Context, clientKey string) error {
	return g.handles.Clear(ctx, clientKey)
}
