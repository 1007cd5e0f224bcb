package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"masu/models"
	"masu/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ControllerConfig wires one flow's collaborators together.
type ControllerConfig struct {
	FlowKind  models.FlowKind
	ClientKey string
	MemberID  string

	Catalog      CatalogService
	Pricing      PriceService
	Availability AvailabilityService
	Redemptions  RedemptionService
	Guests       *GuestIdentityManager
	Orders       OrderService
	Payments     PaymentGateway
	Notifier     Notifier
	Persister    *SessionPersister

	AvailabilityDelay time.Duration
	PriceTimeout      time.Duration
}

// Controller is the single writer of one wizard session. Every public method
// takes its lock; asynchronous price and availability results re-enter
// through token- and key-checked callbacks under the same lock.
type Controller struct {
	mu   sync.Mutex
	sess *models.WizardSession

	machine   Machine
	clientKey string

	catalog     CatalogService
	redemptions RedemptionService
	guests      *GuestIdentityManager
	orders      OrderService
	payments    PaymentGateway
	notifier    Notifier
	persister   *SessionPersister

	prices *PriceCoordinator
	slots  *AvailabilityFetcher

	treatment      *models.Treatment
	availability   *models.Availability
	priceErr       error
	confirmationID string

	recovery   *models.SessionSnapshot
	recoveryID string

	lastActive time.Time
}

// StartFlow creates a controller for a fresh session. If the visitor is
// recognized (member id, or a guest handle bound to the client key) and an
// interrupted session exists, the snapshot is held as a recovery offer; the
// caller decides between Resume and StartFresh.
func StartFlow(ctx context.Context, cfg ControllerConfig) (*Controller, error) {
	now := time.Now()
	c := &Controller{
		machine:     NewMachine(cfg.FlowKind),
		clientKey:   cfg.ClientKey,
		catalog:     cfg.Catalog,
		redemptions: cfg.Redemptions,
		guests:      cfg.Guests,
		orders:      cfg.Orders,
		payments:    cfg.Payments,
		notifier:    cfg.Notifier,
		persister:   cfg.Persister,
		lastActive:  now,
	}
	c.sess = &models.WizardSession{
		SessionID:   uuid.NewString(),
		FlowKind:    cfg.FlowKind,
		CurrentStep: c.machine.First(),
		MemberID:    cfg.MemberID,
		Selection:   models.BookingSelection{Source: models.SourceNewPurchase},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.prices = NewPriceCoordinator(cfg.Pricing, cfg.PriceTimeout, c.applyPrice)
	c.slots = NewAvailabilityFetcher(cfg.Availability, cfg.AvailabilityDelay, cfg.PriceTimeout, c.applyAvailability)

	c.loadRecovery(ctx, cfg.MemberID)
	return c, nil
}

// loadRecovery resolves the visitor's durable identity and pulls any stored
// snapshot for it.
func (c *Controller) loadRecovery(ctx context.Context, memberID string) {
	if c.persister == nil {
		return
	}
	id := memberID
	if id == "" && c.guests != nil {
		if handle, err := c.guests.Lookup(ctx, c.clientKey); err == nil && handle != nil {
			id = handle.ID
		}
	}
	if id == "" {
		return
	}
	snap, err := c.persister.Restore(ctx, id)
	if err != nil {
		utils.GetLogger().Warn("Snapshot restore failed", zap.String("identityId", id), zap.Error(err))
		return
	}
	if snap != nil && snap.State.FlowKind == c.sess.FlowKind {
		c.recovery = snap
		c.recoveryID = id
	}
}

// Session returns a copy of the current session state.
func (c *Controller) Session() models.WizardSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSession(c.sess)
}

// AvailabilityState returns the latest slot list for the current key, or nil
// while a fetch is pending or the key is incomplete.
func (c *Controller) AvailabilityState() *models.Availability {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.availability == nil {
		return nil
	}
	cp := *c.availability
	cp.Slots = append([]models.TimeSlot(nil), c.availability.Slots...)
	return &cp
}

// PriceError returns the last quote failure for the current token, if any.
func (c *Controller) PriceError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.priceErr
}

// ConfirmationID returns the booking or voucher confirmation after a
// successful terminal submission.
func (c *Controller) ConfirmationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmationID
}

// HasRecovery reports whether an interrupted session can be resumed.
func (c *Controller) HasRecovery() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recovery != nil
}

// RecoveryOffer returns the held snapshot, if any.
func (c *Controller) RecoveryOffer() *models.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recovery == nil {
		return nil
	}
	cp := *c.recovery
	cp.State = cloneSession(&c.recovery.State)
	return &cp
}

// Resume replaces the fresh session with the recovered snapshot. The price
// is requoted and availability refetched rather than trusted from storage.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recovery == nil {
		return NewStateError("no interrupted session to resume")
	}
	restored := cloneSession(&c.recovery.State)
	restored.UpdatedAt = time.Now()
	c.sess = &restored
	c.recovery = nil

	c.treatment = nil
	if c.sess.Selection.TreatmentID != "" && c.catalog != nil {
		if t, err := c.catalog.GetTreatment(ctx, c.sess.Selection.TreatmentID); err == nil {
			c.treatment = t
		}
	}
	c.availability = nil
	c.slots.Schedule(availabilityKeyOf(c.sess))
	c.recalcPrice()
	c.touch()
	utils.GetLogger().Info("Session resumed",
		zap.String("sessionId", c.sess.SessionID),
		zap.String("step", c.sess.CurrentStep.String()))
	return nil
}

// StartFresh discards the recovery offer and its stored snapshot. Guests also
// lose the handle binding; the directory record itself stays.
func (c *Controller) StartFresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recovery == nil {
		return
	}
	c.recovery = nil
	if c.persister != nil {
		c.persister.Discard(ctx, c.recoveryID)
	}
	if c.sess.MemberID == "" && c.guests != nil {
		if err := c.guests.Clear(ctx, c.clientKey); err != nil {
			utils.GetLogger().Warn("Handle clear failed", zap.Error(err))
		}
	}
}

// SelectTreatment sets the treatment and, for duration-priced treatments, the
// duration. When a redemption binds the treatment, deviating picks are
// rejected. A lone active duration is auto-selected.
func (c *Controller) SelectTreatment(ctx context.Context, treatmentID, durationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if boundID, boundDur, bound := c.sess.Redemption.BoundTreatment(); bound {
		if treatmentID != boundID {
			return NewValidationError("treatmentId", "treatment is fixed by the applied voucher")
		}
		if boundDur != "" && durationID != "" && durationID != boundDur {
			return NewValidationError("durationId", "duration is fixed by the applied voucher")
		}
	}

	treatment, err := c.catalog.GetTreatment(ctx, treatmentID)
	if err != nil {
		return NewValidationError("treatmentId", "unknown treatment")
	}
	c.treatment = treatment

	c.sess.Selection.TreatmentID = treatmentID
	c.sess.Selection.DurationID = durationID
	if treatment.PricingType == models.PricingDurationBased && durationID == "" {
		if active := treatment.ActiveDurations(); len(active) == 1 {
			c.sess.Selection.DurationID = active[0].ID
		}
	}

	// Slots depend on treatment and duration; the old pick no longer applies.
	c.sess.Selection.Time = ""
	c.availability = nil
	c.slots.Schedule(availabilityKeyOf(c.sess))
	c.recalcPrice()
	c.touch()
	return nil
}

// SelectDate sets the appointment date, clears the now-stale time pick and
// arms a debounced slot fetch for the new key.
func (c *Controller) SelectDate(date string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if c.sess.Selection.Date == date {
		return nil
	}
	c.sess.Selection.Date = date
	c.sess.Selection.Time = ""
	c.availability = nil
	c.slots.Schedule(availabilityKeyOf(c.sess))
	c.recalcPrice()
	c.touch()
	return nil
}

// SelectTime sets the appointment time. The pick must be an available slot of
// the current list when one has arrived.
func (c *Controller) SelectTime(t string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if c.availability != nil && !slotAvailable(c.availability, t) {
		return NewValidationError("time", "slot is not available")
	}
	c.sess.Selection.Time = t
	c.recalcPrice()
	c.touch()
	return nil
}

// SetGenderPreference records the therapist gender preference.
func (c *Controller) SetGenderPreference(pref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	c.sess.Selection.TherapistGenderPreference = pref
	c.touch()
	return nil
}

// SelectVoucher sets the gift voucher flow's purchase details. The quote is
// deterministic, so it is computed in place instead of fetched.
func (c *Controller) SelectVoucher(ctx context.Context, vp models.VoucherPurchase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if c.sess.FlowKind != models.FlowGiftVoucher {
		return NewStateError("voucher details apply to the gift voucher flow only")
	}

	amount := vp.Amount
	if vp.VoucherType == "treatment" {
		treatment, err := c.catalog.GetTreatment(ctx, vp.TreatmentID)
		if err != nil {
			return NewValidationError("treatmentId", "unknown treatment")
		}
		c.treatment = treatment
		if treatment.PricingType == models.PricingDurationBased && vp.DurationID == "" {
			if active := treatment.ActiveDurations(); len(active) == 1 {
				vp.DurationID = active[0].ID
			}
		}
		amount = treatment.BasePriceFor(vp.DurationID)
		if amount <= 0 {
			return NewValidationError("durationId", "select a duration to continue")
		}
		vp.Amount = amount
	} else if amount <= 0 {
		return NewValidationError("amount", "enter a voucher amount to continue")
	}

	c.sess.Voucher = &vp
	c.sess.PriceToken = c.prices.Invalidate()
	c.sess.Price = &models.PriceQuote{BasePrice: amount, FinalAmount: amount}
	c.touch()
	return nil
}

// UpdateIdentity applies the identity form. Edits to fields locked by the
// active redemption are rejected before anything changes.
func (c *Controller) UpdateIdentity(patch models.PartialIdentity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	for _, f := range []models.IdentityField{
		models.FieldFirstName, models.FieldLastName, models.FieldEmail, models.FieldPhone,
	} {
		if c.sess.Redemption.Locked(f) && patch.Field(f) != c.sess.Identity.Field(f) {
			return NewValidationError(string(f), "field is set by the applied voucher")
		}
	}

	emailChanged := patch.Email != c.sess.Identity.Email
	c.sess.Identity = patch
	if emailChanged {
		c.recalcPrice()
	}
	c.touch()
	return nil
}

// UpdateAddress applies the appointment address.
func (c *Controller) UpdateAddress(addr models.PartialAddress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if c.sess.FlowKind != models.FlowBooking {
		return NewStateError("this flow has no address step")
	}
	c.sess.Address = &addr
	c.touch()
	return nil
}

// ApplyRedemptionCode resolves and applies an entitlement code. On rejection
// the session is untouched and the *EntitlementError is returned as-is.
func (c *Controller) ApplyRedemptionCode(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}

	red, err := c.redemptions.ResolveCode(ctx, code)
	if err != nil {
		var ee *EntitlementError
		if errors.As(err, &ee) {
			utils.GetLogger().Info("Redemption code rejected",
				zap.String("reason", string(ee.Reason)))
			return err
		}
		return fmt.Errorf("resolve code: %w", err)
	}
	return c.installRedemption(ctx, red)
}

// ApplyVoucher applies an owned gift voucher by id, as from a member's
// voucher list.
func (c *Controller) ApplyVoucher(ctx context.Context, voucherID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	red, err := c.redemptions.ResolveVoucher(ctx, voucherID)
	if err != nil {
		return err
	}
	return c.installRedemption(ctx, red)
}

// ApplySubscription applies an active subscription by id.
func (c *Controller) ApplySubscription(ctx context.Context, subscriptionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	red, err := c.redemptions.ResolveSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	return c.installRedemption(ctx, red)
}

func (c *Controller) installRedemption(ctx context.Context, red *models.Redemption) error {
	if c.sess.Redemption != nil {
		// Only one entitlement at a time; the new one replaces the old
		// non-destructively.
		clearEntitlement(c.sess)
	}
	applyEntitlement(c.sess, red)

	if boundID, _, bound := red.BoundTreatment(); bound {
		treatment, err := c.catalog.GetTreatment(ctx, boundID)
		if err == nil {
			c.treatment = treatment
			if treatment.PricingType == models.PricingDurationBased && c.sess.Selection.DurationID == "" {
				if active := treatment.ActiveDurations(); len(active) == 1 {
					c.sess.Selection.DurationID = active[0].ID
				}
			}
		}
		c.sess.Selection.Time = ""
		c.availability = nil
		c.slots.Schedule(availabilityKeyOf(c.sess))
	}

	c.recalcPrice()
	c.touch()
	utils.GetLogger().Info("Redemption applied",
		zap.String("sessionId", c.sess.SessionID),
		zap.String("kind", string(red.Kind)))
	return nil
}

// ClearRedemption removes the active entitlement, reverting prefills the
// visitor never edited and requoting the price.
func (c *Controller) ClearRedemption() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if c.sess.Redemption == nil {
		return nil
	}
	clearEntitlement(c.sess)
	c.recalcPrice()
	c.touch()
	return nil
}

// ApplyCoupon attaches a coupon code to the price request without the full
// entitlement treatment.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	red, err := c.redemptions.ResolveCode(ctx, code)
	if err != nil {
		return err
	}
	if red.Kind != models.RedemptionCoupon {
		return NewEntitlementError(ReasonInvalid, "code is not a coupon")
	}
	c.sess.Selection.CouponCode = code
	c.recalcPrice()
	c.touch()
	return nil
}

// Advance validates the current step and moves forward. Leaving the identity
// step bootstraps the guest identity; leaving Summary with a fully covered
// zero total skips Payment and submits directly.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.sess.CurrentStep
	if step == models.StepConfirmation {
		return NewStateError("the flow has already finished")
	}
	if step == models.StepPayment {
		return NewStateError("payment must complete through the payment callback")
	}
	if err := c.machine.Guard(step, c.sess, c.treatment); err != nil {
		return err
	}

	if step == models.StepIdentity {
		c.ensureGuest(ctx)
	}

	if step == models.StepSummary && c.sess.Price != nil &&
		c.sess.Price.FinalAmount == 0 && c.sess.Price.IsFullyCovered {
		// Fully covered by the entitlement, nothing to charge. The decision
		// and the submission happen under the same lock against the same
		// quote, so a concurrent requote cannot split them.
		return c.submitLocked(ctx, "")
	}

	next, ok := c.machine.Next(step)
	if !ok {
		return NewStateError("no further step")
	}
	c.sess.CurrentStep = next
	c.touch()
	return nil
}

// Back moves one step backwards. Confirmation is terminal.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.CurrentStep == models.StepConfirmation {
		return NewStateError("the flow has already finished")
	}
	prev, ok := c.machine.Prev(c.sess.CurrentStep)
	if !ok {
		return NewStateError("already at the first step")
	}
	c.sess.CurrentStep = prev
	c.touch()
	return nil
}

// ensureGuest bootstraps the guest identity once. Failure is logged and
// tolerated; the flow continues without a durable handle.
func (c *Controller) ensureGuest(ctx context.Context) {
	if c.sess.MemberID != "" || c.sess.GuestHandle != nil || c.guests == nil {
		return
	}
	handle, err := c.guests.EnsureIdentity(ctx, c.clientKey, c.sess.Identity)
	if err != nil {
		utils.GetLogger().Warn("Guest bootstrap skipped", zap.Error(err))
		return
	}
	c.sess.GuestHandle = handle
}

// BeginPayment creates a payment intent for the outstanding amount.
func (c *Controller) BeginPayment(ctx context.Context) (*models.PaymentIntentRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.CurrentStep != models.StepPayment {
		return nil, NewStateError("not at the payment step")
	}
	if c.sess.Price == nil || c.sess.Price.FinalAmount <= 0 {
		return nil, NewStateError("nothing to charge")
	}
	ref, err := c.payments.CreateIntent(ctx, c.sess.Price.FinalAmount, "ils",
		fmt.Sprintf("%s %s", c.sess.FlowKind, c.sess.SessionID),
		map[string]string{"sessionId": c.sess.SessionID})
	if err != nil {
		return nil, NewSubmissionError("payment intent", err)
	}
	return ref, nil
}

// CompletePayment consumes the provider callback. A failed payment leaves
// the session at the payment step for retry; a successful one triggers the
// terminal submission.
func (c *Controller) CompletePayment(ctx context.Context, result models.PaymentResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess.CurrentStep != models.StepPayment {
		return NewStateError("not at the payment step")
	}
	if !result.Success {
		utils.GetLogger().Info("Payment declined",
			zap.String("sessionId", c.sess.SessionID),
			zap.String("reason", result.Reason))
		return NewSubmissionError("payment", errors.New(result.Reason))
	}
	return c.submitLocked(ctx, result.PaymentID)
}

// submitLocked performs the terminal booking or voucher creation. Caller
// holds the lock. On failure the session state is preserved for retry.
func (c *Controller) submitLocked(ctx context.Context, paymentID string) error {
	if c.sess.Price == nil {
		// A late requote can fail and null the quote after Summary passed.
		return NewStateError("no price available for submission")
	}
	logger := utils.GetLogger()

	var confirmationID string
	var err error
	switch c.sess.FlowKind {
	case models.FlowGiftVoucher:
		req := models.SubmitVoucherRequest{
			SessionID: c.sess.SessionID,
			MemberID:  c.sess.MemberID,
			Identity:  c.sess.Identity,
			Price:     *c.sess.Price,
			PaymentID: paymentID,
		}
		if v := c.sess.Voucher; v != nil {
			req.VoucherType = v.VoucherType
			req.TreatmentID = v.TreatmentID
			req.DurationID = v.DurationID
			req.Amount = v.Amount
			req.Greeting = v.Greeting
		}
		if c.sess.GuestHandle != nil {
			req.GuestID = c.sess.GuestHandle.ID
		}
		confirmationID, err = c.orders.SubmitVoucherPurchase(ctx, req)
	default:
		req := models.SubmitBookingRequest{
			SessionID:  c.sess.SessionID,
			MemberID:   c.sess.MemberID,
			Identity:   c.sess.Identity,
			Address:    c.sess.Address,
			Selection:  c.sess.Selection,
			Price:      *c.sess.Price,
			Redemption: c.sess.Redemption,
			PaymentID:  paymentID,
		}
		if c.sess.GuestHandle != nil {
			req.GuestID = c.sess.GuestHandle.ID
		}
		confirmationID, err = c.orders.SubmitBooking(ctx, req)
	}
	if err != nil {
		logger.Error("Terminal submission failed",
			zap.String("sessionId", c.sess.SessionID), zap.Error(err))
		return NewSubmissionError("submission", err)
	}

	c.confirmationID = confirmationID
	c.sess.CurrentStep = models.StepConfirmation
	c.sess.UpdatedAt = time.Now()
	c.slots.Cancel()
	if c.persister != nil {
		c.persister.Discard(ctx, c.identityID())
	}
	if c.notifier != nil && c.sess.GuestHandle != nil {
		guestID := c.sess.GuestHandle.ID
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.notifier.BookingConfirmed(nctx, guestID, confirmationID); err != nil {
				utils.GetLogger().Warn("Confirmation push failed", zap.Error(err))
			}
		}()
	}
	logger.Info("Flow completed",
		zap.String("sessionId", c.sess.SessionID),
		zap.String("confirmationId", confirmationID))
	return nil
}

// Teardown stops the controller's timers. Stored snapshots survive so the
// session can be recovered later.
func (c *Controller) Teardown() {
	c.slots.Cancel()
	if c.persister != nil {
		c.persister.Stop()
	}
}

// LastActive returns the time of the last mutating call, for idle sweeping.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// applyPrice is the price coordinator's delivery callback.
func (c *Controller) applyPrice(token uint64, quote *models.PriceQuote, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.sess.PriceToken {
		return
	}
	if err != nil {
		utils.GetLogger().Warn("Price quote failed",
			zap.String("sessionId", c.sess.SessionID), zap.Error(err))
		c.sess.Price = nil
		c.priceErr = err
		return
	}
	c.priceErr = nil
	c.sess.Price = quote
	c.touch()
}

// applyAvailability is the slot fetcher's delivery callback. When the current
// time pick is absent or no longer offered, the first available slot is
// selected automatically.
func (c *Controller) applyAvailability(key models.AvailabilityKey, avail *models.Availability, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key != availabilityKeyOf(c.sess) {
		return
	}
	if err != nil {
		utils.GetLogger().Warn("Availability fetch failed",
			zap.String("sessionId", c.sess.SessionID), zap.Error(err))
		c.availability = nil
		return
	}
	c.availability = avail

	if !slotAvailable(avail, c.sess.Selection.Time) {
		if first := avail.FirstAvailable(); first != nil {
			c.sess.Selection.Time = first.Time
		} else {
			c.sess.Selection.Time = ""
		}
		c.recalcPrice()
	}
	c.touch()
}

// recalcPrice invalidates the current quote and, when every pricing input is
// present, issues a fresh asynchronous request. Caller holds the lock.
func (c *Controller) recalcPrice() {
	if c.sess.FlowKind == models.FlowGiftVoucher {
		return
	}
	c.sess.Price = nil
	c.priceErr = nil
	if priceReady(c.sess, c.treatment) {
		c.sess.PriceToken = c.prices.Request(buildPriceRequest(c.sess))
	} else {
		c.sess.PriceToken = c.prices.Invalidate()
	}
}

// touch stamps the session and, while the flow is still editable and the
// visitor has a durable identity, arms a debounced snapshot save. Caller
// holds the lock.
func (c *Controller) touch() {
	now := time.Now()
	c.sess.UpdatedAt = now
	c.lastActive = now
	if c.persister == nil || c.sess.CurrentStep >= models.StepPayment {
		return
	}
	if id := c.identityID(); id != "" {
		c.persister.Schedule(id, cloneSession(c.sess))
	}
}

// identityID returns the durable identity key for snapshots and reminders.
func (c *Controller) identityID() string {
	if c.sess.MemberID != "" {
		return c.sess.MemberID
	}
	if c.sess.GuestHandle != nil {
		return c.sess.GuestHandle.ID
	}
	return ""
}

// mutable rejects edits once the flow has reached the payment step. The
// quote backing a created payment intent must not shift underneath it;
// Back leads to Summary, where editing reopens.
func (c *Controller) mutable() error {
	switch c.sess.CurrentStep {
	case models.StepConfirmation:
		return NewStateError("the flow has already finished")
	case models.StepPayment:
		return NewStateError("go back to the summary to make changes")
	}
	return nil
}

func slotAvailable(avail *models.Availability, t string) bool {
	if avail == nil || t == "" {
		return false
	}
	for _, s := range avail.Slots {
		if s.Time == t && s.IsAvailable {
			return true
		}
	}
	return false
}

// cloneSession copies the session deeply enough that later mutations of the
// live state cannot leak into a held copy.
func cloneSession(s *models.WizardSession) models.WizardSession {
	cp := *s
	if s.Address != nil {
		a := *s.Address
		cp.Address = &a
	}
	if s.Voucher != nil {
		v := *s.Voucher
		cp.Voucher = &v
	}
	if s.Price != nil {
		q := *s.Price
		q.Surcharges = append([]models.Surcharge(nil), s.Price.Surcharges...)
		cp.Price = &q
	}
	if s.Redemption != nil {
		r := *s.Redemption
		r.LockedFields = append([]models.IdentityField(nil), s.Redemption.LockedFields...)
		cp.Redemption = &r
	}
	if s.Prefilled != nil {
		cp.Prefilled = make(map[models.IdentityField]string, len(s.Prefilled))
		for k, v := range s.Prefilled {
			cp.Prefilled[k] = v
		}
	}
	if s.Identity.Recipient != nil {
		rc := *s.Identity.Recipient
		cp.Identity.Recipient = &rc
	}
	if s.GuestHandle != nil {
		h := *s.GuestHandle
		cp.GuestHandle = &h
	}
	return cp
}
