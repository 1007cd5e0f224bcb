package wizard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"masu/models"

	"github.com/stretchr/testify/require"
)

type priceSink struct {
	mu    sync.Mutex
	token uint64
	quote *models.PriceQuote
	err   error
}

func (s *priceSink) deliver(token uint64, quote *models.PriceQuote, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.quote = quote
	s.err = err
}

func (s *priceSink) current() (*models.PriceQuote, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote, s.token
}

func TestPriceCoordinatorDeliversLatestOnly(t *testing.T) {
	svc := &fakePriceService{
		// First response is slow, later ones fast, so the slow one arrives
		// last and must be dropped.
		delayFor: map[int]time.Duration{1: 100 * time.Millisecond},
		quoteFn:  nil,
	}
	svc.quoteFn = func(req PriceRequest) (*models.PriceQuote, error) {
		amount := float64(len(req.TreatmentID)) * 10
		return &models.PriceQuote{BasePrice: amount, FinalAmount: amount}, nil
	}

	sink := &priceSink{}
	pc := NewPriceCoordinator(svc, time.Second, sink.deliver)

	pc.Request(PriceRequest{TreatmentID: "slow-old-selection"})
	for i := 0; i < 5; i++ {
		pc.Request(PriceRequest{TreatmentID: fmt.Sprintf("new%d", i)})
	}

	require.Eventually(t, func() bool {
		q, token := sink.current()
		return q != nil && token == pc.Current()
	}, time.Second, 5*time.Millisecond)

	// Wait out the slow first response, then confirm it never overwrote.
	time.Sleep(150 * time.Millisecond)
	q, token := sink.current()
	require.Equal(t, pc.Current(), token)
	require.Equal(t, float64(len("new4"))*10, q.FinalAmount)
}

func TestPriceCoordinatorInvalidateOrphansInFlight(t *testing.T) {
	svc := &fakePriceService{delayFor: map[int]time.Duration{1: 50 * time.Millisecond}}
	sink := &priceSink{}
	pc := NewPriceCoordinator(svc, time.Second, sink.deliver)

	pc.Request(PriceRequest{TreatmentID: "massage"})
	pc.Invalidate()

	time.Sleep(100 * time.Millisecond)
	q, _ := sink.current()
	require.Nil(t, q)
}

func TestPriceReady(t *testing.T) {
	sess := &models.WizardSession{}
	require.False(t, priceReady(sess, nil))

	sess.Selection.TreatmentID = "massage"
	sess.Selection.Date = "2026-09-10"
	sess.Selection.Time = "10:00"
	require.False(t, priceReady(sess, fixedTreatment()), "email still missing")

	sess.Identity.Email = "noa@example.com"
	require.True(t, priceReady(sess, fixedTreatment()))

	sess.Selection.TreatmentID = "deep"
	require.False(t, priceReady(sess, durationTreatment()), "duration-priced treatment needs a duration")

	sess.Selection.DurationID = "d60"
	require.True(t, priceReady(sess, durationTreatment()))
}

func TestBuildPriceRequestSnapshotsSession(t *testing.T) {
	sess := &models.WizardSession{
		MemberID: "m1",
		Selection: models.BookingSelection{
			TreatmentID: "deep",
			DurationID:  "d60",
			Date:        "2026-09-10",
			Time:        "19:00",
			CouponCode:  "SAVE10",
		},
	}
	sess.Identity.Email = "noa@example.com"
	sess.GuestHandle = &models.GuestIdentityHandle{ID: "g1"}

	req := buildPriceRequest(sess)
	require.Equal(t, "deep", req.TreatmentID)
	require.Equal(t, "d60", req.DurationID)
	require.Equal(t, "19:00", req.Time)
	require.Equal(t, "noa@example.com", req.Email)
	require.Equal(t, "g1", req.GuestID)
	require.Equal(t, "m1", req.MemberID)
	require.Equal(t, "SAVE10", req.CouponCode)
}
