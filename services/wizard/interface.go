package wizard

import (
	"context"
	"time"

	"masu/models"
)

// PriceRequest carries every input the remote price function depends on.
type PriceRequest struct {
	TreatmentID string
	DurationID  string
	Date        string
	Time        string
	Email       string
	GuestID     string
	MemberID    string
	CouponCode  string
	Redemption  *models.Redemption
}

// PriceService quotes a price breakdown for the current selections.
// Treated as a remote pure function; the formula itself is out of scope here.
type PriceService interface {
	QuotePrice(ctx context.Context, req PriceRequest) (*models.PriceQuote, error)
}

// AvailabilityService lists time slots for one (date, treatment, duration) tuple.
type AvailabilityService interface {
	FetchAvailability(ctx context.Context, key models.AvailabilityKey) (*models.Availability, error)
}

// RedemptionService validates and normalizes entitlements into Redemption
// descriptors. Rejections come back as *EntitlementError.
type RedemptionService interface {
	ResolveCode(ctx context.Context, code string) (*models.Redemption, error)
	ResolveVoucher(ctx context.Context, voucherID string) (*models.Redemption, error)
	ResolveSubscription(ctx context.Context, subscriptionID string) (*models.Redemption, error)
}

// GuestDirectory is the persistent guest identity registry.
type GuestDirectory interface {
	// FindOrCreate reuses an existing guest matched by email, otherwise
	// inserts the given record. The stored secret hash is refreshed either way.
	FindOrCreate(ctx context.Context, guest *models.GuestIdentity) (*models.GuestIdentity, bool, error)
	GetByID(ctx context.Context, id string) (*models.GuestIdentity, error)
}

// HandleStore keeps the durable guest handle reference between visits,
// keyed by an opaque client continuity key.
type HandleStore interface {
	Save(ctx context.Context, clientKey string, handle models.GuestIdentityHandle) error
	Load(ctx context.Context, clientKey string) (*models.GuestIdentityHandle, error)
	Clear(ctx context.Context, clientKey string) error
}

// SnapshotStore persists one wizard session snapshot per identity handle,
// overwritten on each save.
type SnapshotStore interface {
	Save(ctx context.Context, identityID string, snap models.SessionSnapshot) error
	Load(ctx context.Context, identityID string) (*models.SessionSnapshot, error)
	Delete(ctx context.Context, identityID string) error
}

// OrderService is the terminal booking/voucher creation collaborator.
type OrderService interface {
	SubmitBooking(ctx context.Context, req models.SubmitBookingRequest) (string, error)
	SubmitVoucherPurchase(ctx context.Context, req models.SubmitVoucherRequest) (string, error)
}

// CatalogService resolves treatments for selection guards and price context.
type CatalogService interface {
	GetTreatment(ctx context.Context, id string) (*models.Treatment, error)
	ListActiveTreatments(ctx context.Context) ([]models.Treatment, error)
}

// ReminderScheduler queues an abandoned-session reminder. Each save replaces
// the prior pending reminder; terminal submission cancels it.
type ReminderScheduler interface {
	ScheduleAbandoned(ctx context.Context, identityID string, delay time.Duration) error
	CancelAbandoned(ctx context.Context, identityID string) error
}

// PaymentGateway creates provider-side payment intents for non-zero amounts.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount float64, currency, description string, metadata map[string]string) (*models.PaymentIntentRef, error)
}

// Notifier pushes booking lifecycle notifications. Failures are logged, never
// surfaced to the flow.
type Notifier interface {
	BookingConfirmed(ctx context.Context, guestID, confirmationID string) error
}
