package wizard

import (
	"context"
	"sync/atomic"
	"time"

	"masu/models"
	"masu/utils"

	"go.uber.org/zap"
)

// PriceCoordinator serializes concurrent price fetches. Every request gets a
// monotonically increasing token; only the quote carrying the latest token is
// ever delivered, so a slow response for an old selection can never overwrite
// a newer one.
type PriceCoordinator struct {
	svc     PriceService
	timeout time.Duration
	token   uint64

	// deliver runs on the fetch goroutine with the winning token. The
	// receiver re-checks the token under its own lock before applying.
	deliver func(token uint64, quote *models.PriceQuote, err error)
}

func NewPriceCoordinator(svc PriceService, timeout time.Duration, deliver func(token uint64, quote *models.PriceQuote, err error)) *PriceCoordinator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PriceCoordinator{svc: svc, timeout: timeout, deliver: deliver}
}

// Invalidate issues a fresh token without fetching, orphaning any in-flight
// request. Used when a pricing input changes but the new state is not yet
// fetchable.
func (p *PriceCoordinator) Invalidate() uint64 {
	return atomic.AddUint64(&p.token, 1)
}

// Current returns the latest issued token.
func (p *PriceCoordinator) Current() uint64 {
	return atomic.LoadUint64(&p.token)
}

// Request issues a new token and fetches a quote asynchronously. The result
// reaches the receiver through deliver only if no later token was issued by
// the time the response arrives.
func (p *PriceCoordinator) Request(req PriceRequest) uint64 {
	token := atomic.AddUint64(&p.token, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		quote, err := p.svc.QuotePrice(ctx, req)

		if atomic.LoadUint64(&p.token) != token {
			utils.GetLogger().Debug("Discarding stale price response",
				zap.Uint64("token", token),
				zap.Uint64("latest", atomic.LoadUint64(&p.token)))
			return
		}
		p.deliver(token, quote, err)
	}()

	return token
}

// priceReady reports whether the session has every input the price function
// needs. Duration counts only for duration-priced treatments.
func priceReady(sess *models.WizardSession, treatment *models.Treatment) bool {
	sel := sess.Selection
	if sel.TreatmentID == "" || sel.Date == "" || sel.Time == "" {
		return false
	}
	if sess.Identity.Email == "" {
		return false
	}
	if treatment != nil && treatment.PricingType == models.PricingDurationBased && sel.DurationID == "" {
		return false
	}
	return true
}

// buildPriceRequest snapshots the session's pricing inputs.
func buildPriceRequest(sess *models.WizardSession) PriceRequest {
	req := PriceRequest{
		TreatmentID: sess.Selection.TreatmentID,
		DurationID:  sess.Selection.DurationID,
		Date:        sess.Selection.Date,
		Time:        sess.Selection.Time,
		Email:       sess.Identity.Email,
		MemberID:    sess.MemberID,
		CouponCode:  sess.Selection.CouponCode,
		Redemption:  sess.Redemption,
	}
	if sess.GuestHandle != nil {
		req.GuestID = sess.GuestHandle.ID
	}
	return req
}
