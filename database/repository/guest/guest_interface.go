package guestRepo

import (
	"context"

	"masu/models"
)

// GuestRepository defines the interface for guest identity data access.
type GuestRepository interface {
	// FindOrCreate reuses the guest matched by email, refreshing its secret
	// hash and contact details, otherwise inserts the given record. The
	// second return reports whether a new record was created.
	FindOrCreate(ctx context.Context, guest *models.GuestIdentity) (*models.GuestIdentity, bool, error)
	GetByID(ctx context.Context, id string) (*models.GuestIdentity, error)
	GetByEmail(ctx context.Context, email string) (*models.GuestIdentity, error)
	SetFCMToken(ctx context.Context, id, token string) error
	Delete(ctx context.Context, id string) error
}
