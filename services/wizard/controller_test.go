package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"masu/models"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	prices      *fakePriceService
	slots       *fakeAvailabilityService
	redemptions *fakeRedemptionService
	directory   *fakeGuestDirectory
	handles     *fakeHandleStore
	snaps       *fakeSnapshotStore
	orders      *fakeOrderService
	payments    *fakePaymentGateway
	reminders   *fakeReminderScheduler
	catalog     *fakeCatalog
	ctrl        *Controller
}

func newTestEnv(t *testing.T, flow models.FlowKind) *testEnv {
	t.Helper()
	env := &testEnv{
		prices:      &fakePriceService{},
		slots:       &fakeAvailabilityService{},
		redemptions: &fakeRedemptionService{byCode: map[string]*models.Redemption{}},
		directory:   newFakeGuestDirectory(),
		handles:     newFakeHandleStore(),
		snaps:       newFakeSnapshotStore(),
		orders:      &fakeOrderService{},
		payments:    &fakePaymentGateway{},
		reminders:   &fakeReminderScheduler{},
		catalog: &fakeCatalog{treatments: map[string]*models.Treatment{
			"massage": fixedTreatment(),
			"deep":    durationTreatment(),
		}},
	}
	ctrl, err := StartFlow(context.Background(), ControllerConfig{
		FlowKind:          flow,
		ClientKey:         "device-1",
		Catalog:           env.catalog,
		Pricing:           env.prices,
		Availability:      env.slots,
		Redemptions:       env.redemptions,
		Guests:            NewGuestIdentityManager(env.directory, env.handles),
		Orders:            env.orders,
		Payments:          env.payments,
		Persister:         NewSessionPersister(env.snaps, env.reminders, 10*time.Millisecond, time.Hour),
		AvailabilityDelay: 10 * time.Millisecond,
		PriceTimeout:      time.Second,
	})
	require.NoError(t, err)
	env.ctrl = ctrl
	t.Cleanup(ctrl.Teardown)
	return env
}

// walkToSummary drives a booking session from the first step to Summary.
func (env *testEnv) walkToSummary(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	c := env.ctrl

	require.NoError(t, c.SelectTreatment(ctx, "massage", ""))
	require.NoError(t, c.SelectDate("2026-09-10"))

	// The debounced fetch lands and auto-selects the first slot.
	require.Eventually(t, func() bool {
		return c.Session().Selection.Time != ""
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Advance(ctx)) // -> Scheduling
	require.NoError(t, c.Advance(ctx)) // -> Identity
	require.NoError(t, c.UpdateIdentity(testIdentity()))
	require.NoError(t, c.Advance(ctx)) // -> Address, guest bootstrapped
	require.NoError(t, c.UpdateAddress(models.PartialAddress{
		City: "Tel Aviv", Street: "Dizengoff", HouseNumber: "12",
	}))
	require.NoError(t, c.Advance(ctx)) // -> Summary

	require.Eventually(t, func() bool {
		return c.Session().Price != nil
	}, time.Second, 5*time.Millisecond)
}

func TestFullBookingFlowThroughPayment(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.prices.quoteFn = func(req PriceRequest) (*models.PriceQuote, error) {
		return &models.PriceQuote{
			BasePrice:       200,
			Surcharges:      []models.Surcharge{{Description: "Evening hours", Amount: 20}},
			TotalSurcharges: 20,
			FinalAmount:     220,
		}, nil
	}
	ctx := context.Background()
	env.walkToSummary(t)

	sess := env.ctrl.Session()
	require.Equal(t, models.StepSummary, sess.CurrentStep)
	require.Equal(t, 220.0, sess.Price.FinalAmount)
	require.NotNil(t, sess.GuestHandle, "guest bootstrapped on leaving identity")

	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment
	ref, err := env.ctrl.BeginPayment(ctx)
	require.NoError(t, err)
	require.Equal(t, 220.0, ref.Amount)

	err = env.ctrl.CompletePayment(ctx, models.PaymentResult{
		IntentID: ref.IntentID, Success: true, PaymentID: "pay_1",
	})
	require.NoError(t, err)

	sess = env.ctrl.Session()
	require.Equal(t, models.StepConfirmation, sess.CurrentStep)
	require.Equal(t, "BK-0001", env.ctrl.ConfirmationID())
	require.Len(t, env.orders.bookings, 1)
	require.Equal(t, "pay_1", env.orders.bookings[0].PaymentID)

	// Terminal submission clears the stored snapshot and its reminder.
	snap, err := env.snaps.Load(ctx, sess.GuestHandle.ID)
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSkipPaymentWhenFullyCovered(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.redemptions.byCode["GIFT123"] = &models.Redemption{
		Kind: models.RedemptionTreatmentVoucher,
		Code: "GIFT123",
		Voucher: &models.VoucherPayload{
			VoucherID: "v1", VoucherType: "treatment",
			TreatmentID: "massage", Amount: 200, Status: "active",
		},
	}
	env.prices.quoteFn = func(req PriceRequest) (*models.PriceQuote, error) {
		if req.Redemption != nil {
			return &models.PriceQuote{
				BasePrice: 200, VoucherApplied: 200,
				FinalAmount: 0, IsFullyCovered: true,
			}, nil
		}
		return &models.PriceQuote{BasePrice: 200, FinalAmount: 200}, nil
	}
	ctx := context.Background()

	require.NoError(t, env.ctrl.ApplyRedemptionCode(ctx, "GIFT123"))
	env.walkToSummary(t)

	sess := env.ctrl.Session()
	require.True(t, sess.Price.IsFullyCovered)
	require.Zero(t, sess.Price.FinalAmount)

	// Advancing from Summary submits directly, no payment step.
	require.NoError(t, env.ctrl.Advance(ctx))
	sess = env.ctrl.Session()
	require.Equal(t, models.StepConfirmation, sess.CurrentStep)
	require.Empty(t, env.payments.intents)
	require.Len(t, env.orders.bookings, 1)
	require.Empty(t, env.orders.bookings[0].PaymentID)
	require.Equal(t, models.SourceGiftVoucherRedemption, env.orders.bookings[0].Selection.Source)
}

func TestLockedIdentityFieldsRejectEdits(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.redemptions.byCode["GIFT123"] = giftVoucherRedemption()
	ctx := context.Background()

	require.NoError(t, env.ctrl.ApplyRedemptionCode(ctx, "GIFT123"))
	sess := env.ctrl.Session()
	require.Equal(t, "Dana", sess.Identity.FirstName)
	require.Equal(t, "deep", sess.Selection.TreatmentID)

	patch := sess.Identity
	patch.FirstName = "Someone"
	err := env.ctrl.UpdateIdentity(patch)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "first_name", ve.Field)

	// Unlocked fields stay editable alongside the locked ones.
	patch = sess.Identity
	patch.Email = "dana@example.com"
	require.NoError(t, env.ctrl.UpdateIdentity(patch))
	require.Equal(t, "dana@example.com", env.ctrl.Session().Identity.Email)
}

func TestBoundTreatmentCannotBeChanged(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.redemptions.byCode["GIFT123"] = giftVoucherRedemption()
	ctx := context.Background()

	require.NoError(t, env.ctrl.ApplyRedemptionCode(ctx, "GIFT123"))

	err := env.ctrl.SelectTreatment(ctx, "massage", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "treatmentId", ve.Field)

	require.NoError(t, env.ctrl.SelectTreatment(ctx, "deep", "d60"))
}

func TestClearRedemptionUnlocksAndRequotes(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.redemptions.byCode["GIFT123"] = giftVoucherRedemption()
	ctx := context.Background()

	require.NoError(t, env.ctrl.ApplyRedemptionCode(ctx, "GIFT123"))
	require.NoError(t, env.ctrl.ClearRedemption())

	sess := env.ctrl.Session()
	require.Nil(t, sess.Redemption)
	require.Empty(t, sess.Identity.FirstName, "prefill reverted")
	require.Equal(t, models.SourceNewPurchase, sess.Selection.Source)

	patch := testIdentity()
	require.NoError(t, env.ctrl.UpdateIdentity(patch))
}

func TestRejectedCodeLeavesSessionUntouched(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.redemptions.errs = map[string]error{
		"OLD": NewEntitlementError(ReasonExpired, "voucher has expired"),
	}
	ctx := context.Background()
	before := env.ctrl.Session()

	err := env.ctrl.ApplyRedemptionCode(ctx, "OLD")
	var ee *EntitlementError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ReasonExpired, ee.Reason)

	after := env.ctrl.Session()
	require.Equal(t, before.Identity, after.Identity)
	require.Nil(t, after.Redemption)
}

func TestRapidDateChangesCollapseToOneFetch(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	ctx := context.Background()

	require.NoError(t, env.ctrl.SelectTreatment(ctx, "massage", ""))
	for _, date := range []string{"2026-09-10", "2026-09-11", "2026-09-12"} {
		require.NoError(t, env.ctrl.SelectDate(date))
	}

	require.Eventually(t, func() bool {
		return env.ctrl.Session().Selection.Time == "10:00"
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, env.slots.callCount())
	require.Equal(t, "2026-09-12", env.ctrl.Session().Selection.Date)
}

func TestAdvanceBlockedByGuard(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	err := env.ctrl.Advance(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "treatmentId", ve.Field)
	require.Equal(t, models.StepTreatmentSelection, env.ctrl.Session().CurrentStep)
}

func TestPaymentFailureKeepsSessionForRetry(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	ctx := context.Background()
	env.walkToSummary(t)
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment

	err := env.ctrl.CompletePayment(ctx, models.PaymentResult{Success: false, Reason: "card declined"})
	var sub *SubmissionError
	require.ErrorAs(t, err, &sub)
	require.Equal(t, models.StepPayment, env.ctrl.Session().CurrentStep)

	require.NoError(t, env.ctrl.CompletePayment(ctx, models.PaymentResult{Success: true, PaymentID: "pay_2"}))
	require.Equal(t, models.StepConfirmation, env.ctrl.Session().CurrentStep)
}

func TestSubmissionFailureIsRetryable(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.prices.quoteFn = func(req PriceRequest) (*models.PriceQuote, error) {
		return &models.PriceQuote{BasePrice: 200, VoucherApplied: 200, FinalAmount: 0, IsFullyCovered: true}, nil
	}
	ctx := context.Background()
	env.walkToSummary(t)

	env.orders.err = errors.New("backend down")
	err := env.ctrl.Advance(ctx)
	var sub *SubmissionError
	require.ErrorAs(t, err, &sub)
	require.Equal(t, models.StepSummary, env.ctrl.Session().CurrentStep, "state preserved for retry")

	env.orders.err = nil
	require.NoError(t, env.ctrl.Advance(ctx))
	require.Equal(t, models.StepConfirmation, env.ctrl.Session().CurrentStep)
}

func TestBackWalksOneStep(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.walkToSummary(t)

	require.NoError(t, env.ctrl.Back())
	require.Equal(t, models.StepAddress, env.ctrl.Session().CurrentStep)

	require.NoError(t, env.ctrl.Back())
	require.Equal(t, models.StepIdentity, env.ctrl.Session().CurrentStep)
}

func TestRecoveryOfferAndResume(t *testing.T) {
	directory := newFakeGuestDirectory()
	handles := newFakeHandleStore()
	snaps := newFakeSnapshotStore()
	ctx := context.Background()

	// A prior visit left a guest handle and a saved session behind.
	guest := &models.GuestIdentity{ID: "g9", Email: "noa@example.com"}
	directory.byID["g9"] = guest
	directory.byEmail[guest.Email] = guest
	require.NoError(t, handles.Save(ctx, "device-1", models.GuestIdentityHandle{ID: "g9"}))
	require.NoError(t, snaps.Save(ctx, "g9", models.SessionSnapshot{
		SavedAt: time.Now().Add(-time.Hour),
		State: models.WizardSession{
			SessionID:   "old",
			FlowKind:    models.FlowBooking,
			CurrentStep: models.StepIdentity,
			Selection: models.BookingSelection{
				TreatmentID: "massage", Date: "2026-09-10", Time: "10:00",
				Source: models.SourceNewPurchase,
			},
			Identity:    models.PartialIdentity{FirstName: "Noa"},
			GuestHandle: &models.GuestIdentityHandle{ID: "g9"},
		},
	}))

	ctrl, err := StartFlow(ctx, ControllerConfig{
		FlowKind:  models.FlowBooking,
		ClientKey: "device-1",
		Catalog: &fakeCatalog{treatments: map[string]*models.Treatment{
			"massage": fixedTreatment(),
		}},
		Pricing:           &fakePriceService{},
		Availability:      &fakeAvailabilityService{},
		Redemptions:       &fakeRedemptionService{},
		Guests:            NewGuestIdentityManager(directory, handles),
		Orders:            &fakeOrderService{},
		Persister:         NewSessionPersister(snaps, nil, time.Millisecond, time.Hour),
		AvailabilityDelay: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Teardown)

	require.True(t, ctrl.HasRecovery())
	offer := ctrl.RecoveryOffer()
	require.NotNil(t, offer)
	require.Equal(t, models.StepIdentity, offer.State.CurrentStep)

	require.NoError(t, ctrl.Resume(ctx))
	sess := ctrl.Session()
	require.Equal(t, models.StepIdentity, sess.CurrentStep)
	require.Equal(t, "Noa", sess.Identity.FirstName)
	require.Equal(t, "massage", sess.Selection.TreatmentID)
	require.False(t, ctrl.HasRecovery())
}

func TestStartFreshDiscardsSnapshot(t *testing.T) {
	directory := newFakeGuestDirectory()
	handles := newFakeHandleStore()
	snaps := newFakeSnapshotStore()
	ctx := context.Background()

	guest := &models.GuestIdentity{ID: "g9", Email: "noa@example.com"}
	directory.byID["g9"] = guest
	require.NoError(t, handles.Save(ctx, "device-1", models.GuestIdentityHandle{ID: "g9"}))
	require.NoError(t, snaps.Save(ctx, "g9", models.SessionSnapshot{
		State: models.WizardSession{SessionID: "old", FlowKind: models.FlowBooking},
	}))

	ctrl, err := StartFlow(ctx, ControllerConfig{
		FlowKind:          models.FlowBooking,
		ClientKey:         "device-1",
		Catalog:           &fakeCatalog{},
		Pricing:           &fakePriceService{},
		Availability:      &fakeAvailabilityService{},
		Redemptions:       &fakeRedemptionService{},
		Guests:            NewGuestIdentityManager(directory, handles),
		Orders:            &fakeOrderService{},
		Persister:         NewSessionPersister(snaps, nil, time.Millisecond, time.Hour),
		AvailabilityDelay: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Teardown)

	require.True(t, ctrl.HasRecovery())
	ctrl.StartFresh(ctx)
	require.False(t, ctrl.HasRecovery())

	snap, err := snaps.Load(ctx, "g9")
	require.NoError(t, err)
	require.Nil(t, snap)

	// The handle binding goes too; the guest record itself survives.
	h, err := handles.Load(ctx, "device-1")
	require.NoError(t, err)
	require.Nil(t, h)
	g, err := directory.GetByID(ctx, "g9")
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestGiftVoucherFlow(t *testing.T) {
	env := newTestEnv(t, models.FlowGiftVoucher)
	ctx := context.Background()

	require.NoError(t, env.ctrl.SelectVoucher(ctx, models.VoucherPurchase{
		VoucherType: "monetary", Amount: 300, Greeting: "Happy birthday!",
	}))
	sess := env.ctrl.Session()
	require.NotNil(t, sess.Price)
	require.Equal(t, 300.0, sess.Price.FinalAmount)

	require.NoError(t, env.ctrl.Advance(ctx)) // -> Identity
	require.NoError(t, env.ctrl.UpdateIdentity(testIdentity()))
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Summary
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment

	ref, err := env.ctrl.BeginPayment(ctx)
	require.NoError(t, err)
	require.Equal(t, 300.0, ref.Amount)

	require.NoError(t, env.ctrl.CompletePayment(ctx, models.PaymentResult{
		Success: true, PaymentID: "pay_7",
	}))
	require.Len(t, env.orders.vouchers, 1)
	require.Equal(t, "monetary", env.orders.vouchers[0].VoucherType)
	require.Equal(t, 300.0, env.orders.vouchers[0].Amount)
	require.Equal(t, "Happy birthday!", env.orders.vouchers[0].Greeting)
}

func TestSnapshotsStopAtPaymentStep(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	ctx := context.Background()
	env.walkToSummary(t)
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment

	// Let pending debounced saves drain, then confirm no further writes.
	time.Sleep(50 * time.Millisecond)
	before := env.snaps.saveCount()
	_, err := env.ctrl.BeginPayment(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, env.snaps.saveCount())
}

func TestEditsRejectedAtPaymentStep(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	ctx := context.Background()
	env.walkToSummary(t)
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment

	quoted := env.ctrl.Session().Price.FinalAmount

	// The quote backing the intent must not shift; every mutation is refused.
	var se *StateError
	require.ErrorAs(t, env.ctrl.SelectDate("2026-10-01"), &se)
	require.ErrorAs(t, env.ctrl.SelectTreatment(ctx, "deep", "d60"), &se)
	require.ErrorAs(t, env.ctrl.UpdateIdentity(testIdentity()), &se)
	require.ErrorAs(t, env.ctrl.ApplyRedemptionCode(ctx, "GIFT123"), &se)
	require.ErrorAs(t, env.ctrl.ClearRedemption(), &se)

	sess := env.ctrl.Session()
	require.Equal(t, models.StepPayment, sess.CurrentStep)
	require.NotNil(t, sess.Price)
	require.Equal(t, quoted, sess.Price.FinalAmount)

	// Completing the payment after the refused edits still submits cleanly.
	require.NoError(t, env.ctrl.CompletePayment(ctx, models.PaymentResult{
		Success: true, PaymentID: "pay_9",
	}))
	require.Equal(t, models.StepConfirmation, env.ctrl.Session().CurrentStep)
	require.Len(t, env.orders.bookings, 1)
	require.Equal(t, quoted, env.orders.bookings[0].Price.FinalAmount)

	// Going back to Summary is the way to reopen editing.
	env2 := newTestEnv(t, models.FlowBooking)
	env2.walkToSummary(t)
	require.NoError(t, env2.ctrl.Advance(ctx))
	require.NoError(t, env2.ctrl.Back())
	require.Equal(t, models.StepSummary, env2.ctrl.Session().CurrentStep)
	require.NoError(t, env2.ctrl.SelectDate("2026-10-01"))
}

func TestCompletePaymentWithoutQuoteDoesNotSubmit(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	ctx := context.Background()
	env.walkToSummary(t)
	require.NoError(t, env.ctrl.Advance(ctx)) // -> Payment

	// A late requote failure can null the quote after Summary passed.
	env.ctrl.mu.Lock()
	env.ctrl.sess.Price = nil
	env.ctrl.mu.Unlock()

	var se *StateError
	err := env.ctrl.CompletePayment(ctx, models.PaymentResult{Success: true, PaymentID: "pay_1"})
	require.ErrorAs(t, err, &se)
	require.Equal(t, models.StepPayment, env.ctrl.Session().CurrentStep)
	require.Empty(t, env.orders.bookings)
}

func TestSessionAfterConfirmationIsImmutable(t *testing.T) {
	env := newTestEnv(t, models.FlowBooking)
	env.prices.quoteFn = func(req PriceRequest) (*models.PriceQuote, error) {
		return &models.PriceQuote{BasePrice: 200, VoucherApplied: 200, FinalAmount: 0, IsFullyCovered: true}, nil
	}
	ctx := context.Background()
	env.walkToSummary(t)
	require.NoError(t, env.ctrl.Advance(ctx))
	require.Equal(t, models.StepConfirmation, env.ctrl.Session().CurrentStep)

	var se *StateError
	require.ErrorAs(t, env.ctrl.SelectDate("2026-10-01"), &se)
	require.ErrorAs(t, env.ctrl.UpdateIdentity(testIdentity()), &se)
	require.ErrorAs(t, env.ctrl.Advance(ctx), &se)
	require.ErrorAs(t, env.ctrl.Back(), &se)
}
