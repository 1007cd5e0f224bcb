package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"masu/models"
)

type fakePriceService struct {
	mu    sync.Mutex
	calls []PriceRequest
	// delayFor lets a test slow down a specific call (1-based).
	delayFor map[int]time.Duration
	quoteFn  func(req PriceRequest) (*models.PriceQuote, error)
}

func (f *fakePriceService) QuotePrice(ctx context.Context, req PriceRequest) (*models.PriceQuote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	n := len(f.calls)
	delay := f.delayFor[n]
	quoteFn := f.quoteFn
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if quoteFn != nil {
		return quoteFn(req)
	}
	return &models.PriceQuote{BasePrice: 100, FinalAmount: 100}, nil
}

func (f *fakePriceService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAvailabilityService struct {
	mu      sync.Mutex
	calls   []models.AvailabilityKey
	delay   time.Duration
	availFn func(key models.AvailabilityKey) (*models.Availability, error)
}

func (f *fakeAvailabilityService) FetchAvailability(ctx context.Context, key models.AvailabilityKey) (*models.Availability, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	delay := f.delay
	availFn := f.availFn
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if availFn != nil {
		return availFn(key)
	}
	return &models.Availability{Slots: []models.TimeSlot{
		{Time: "10:00", IsAvailable: true},
		{Time: "10:30", IsAvailable: true},
	}}, nil
}

func (f *fakeAvailabilityService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRedemptionService struct {
	byCode map[string]*models.Redemption
	errs   map[string]error
}

func (f *fakeRedemptionService) ResolveCode(ctx context.Context, code string) (*models.Redemption, error) {
	if err, ok := f.errs[code]; ok {
		return nil, err
	}
	if r, ok := f.byCode[code]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, NewEntitlementError(ReasonInvalid, "unknown code")
}

func (f *fakeRedemptionService) ResolveVoucher(ctx context.Context, voucherID string) (*models.Redemption, error) {
	return f.ResolveCode(ctx, voucherID)
}

func (f *fakeRedemptionService) ResolveSubscription(ctx context.Context, subscriptionID string) (*models.Redemption, error) {
	return f.ResolveCode(ctx, subscriptionID)
}

type fakeGuestDirectory struct {
	mu      sync.Mutex
	byEmail map[string]*models.GuestIdentity
	byID    map[string]*models.GuestIdentity
	created int
}

func newFakeGuestDirectory() *fakeGuestDirectory {
	return &fakeGuestDirectory{
		byEmail: make(map[string]*models.GuestIdentity),
		byID:    make(map[string]*models.GuestIdentity),
	}
}

func (f *fakeGuestDirectory) FindOrCreate(ctx context.Context, guest *models.GuestIdentity) (*models.GuestIdentity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEmail[guest.Email]; ok {
		existing.SecretHash = guest.SecretHash
		return existing, false, nil
	}
	f.created++
	f.byEmail[guest.Email] = guest
	f.byID[guest.ID] = guest
	return guest, true, nil
}

func (f *fakeGuestDirectory) GetByID(ctx context.Context, id string) (*models.GuestIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.byID[id]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("guest %s not found", id)
}

type fakeHandleStore struct {
	mu      sync.Mutex
	handles map[string]models.GuestIdentityHandle
}

func newFakeHandleStore() *fakeHandleStore {
	return &fakeHandleStore{handles: make(map[string]models.GuestIdentityHandle)}
}

func (f *fakeHandleStore) Save(ctx context.Context, clientKey string, handle models.GuestIdentityHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles[clientKey] = models.GuestIdentityHandle{ID: handle.ID}
	return nil
}

func (f *fakeHandleStore) Load(ctx context.Context, clientKey string) (*models.GuestIdentityHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.handles[clientKey]; ok {
		cp := h
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeHandleStore) Clear(ctx context.Context, clientKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handles, clientKey)
	return nil
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]models.SessionSnapshot
	saves int
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snaps: make(map[string]models.SessionSnapshot)}
}

func (f *fakeSnapshotStore) Save(ctx context.Context, identityID string, snap models.SessionSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.snaps[identityID] = snap
	return nil
}

func (f *fakeSnapshotStore) Load(ctx context.Context, identityID string) (*models.SessionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.snaps[identityID]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSnapshotStore) Delete(ctx context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snaps, identityID)
	return nil
}

func (f *fakeSnapshotStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeOrderService struct {
	mu       sync.Mutex
	bookings []models.SubmitBookingRequest
	vouchers []models.SubmitVoucherRequest
	err      error
}

func (f *fakeOrderService) SubmitBooking(ctx context.Context, req models.SubmitBookingRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.bookings = append(f.bookings, req)
	return fmt.Sprintf("BK-%04d", len(f.bookings)), nil
}

func (f *fakeOrderService) SubmitVoucherPurchase(ctx context.Context, req models.SubmitVoucherRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.vouchers = append(f.vouchers, req)
	return fmt.Sprintf("GV-%04d", len(f.vouchers)), nil
}

type fakeCatalog struct {
	treatments map[string]*models.Treatment
}

func (f *fakeCatalog) GetTreatment(ctx context.Context, id string) (*models.Treatment, error) {
	if t, ok := f.treatments[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("treatment %s not found", id)
}

func (f *fakeCatalog) ListActiveTreatments(ctx context.Context) ([]models.Treatment, error) {
	var out []models.Treatment
	for _, t := range f.treatments {
		if t.Active {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeReminderScheduler struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (f *fakeReminderScheduler) ScheduleAbandoned(ctx context.Context, identityID string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, identityID)
	return nil
}

func (f *fakeReminderScheduler) CancelAbandoned(ctx context.Context, identityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, identityID)
	return nil
}

type fakePaymentGateway struct {
	mu      sync.Mutex
	intents []float64
}

func (f *fakePaymentGateway) CreateIntent(ctx context.Context, amount float64, currency, description string, metadata map[string]string) (*models.PaymentIntentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, amount)
	return &models.PaymentIntentRef{
		IntentID:     fmt.Sprintf("pi_%04d", len(f.intents)),
		ClientSecret: "secret",
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func fixedTreatment() *models.Treatment {
	return &models.Treatment{
		ID:          "massage",
		Name:        "Classic massage",
		PricingType: models.PricingFixed,
		FixedPrice:  200,
		Active:      true,
	}
}

func durationTreatment() *models.Treatment {
	return &models.Treatment{
		ID:          "deep",
		Name:        "Deep tissue",
		PricingType: models.PricingDurationBased,
		Durations: []models.TreatmentDuration{
			{ID: "d60", Minutes: 60, Price: 250, Active: true},
			{ID: "d90", Minutes: 90, Price: 340, Active: true},
		},
		Active: true,
	}
}
