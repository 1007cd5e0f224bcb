package wizard

import (
	"context"
	"sync"
	"time"

	"masu/models"
	"masu/utils"

	"go.uber.org/zap"
)

// AvailabilityFetcher debounces slot queries for the current
// (date, treatment, duration) tuple. Rapid key changes collapse into a single
// fetch for the settled key, and a response for a superseded key is dropped.
type AvailabilityFetcher struct {
	svc      AvailabilityService
	debounce *Debouncer
	timeout  time.Duration

	mu  sync.Mutex
	key models.AvailabilityKey

	deliver func(key models.AvailabilityKey, avail *models.Availability, err error)
}

func NewAvailabilityFetcher(svc AvailabilityService, delay, timeout time.Duration, deliver func(key models.AvailabilityKey, avail *models.Availability, err error)) *AvailabilityFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AvailabilityFetcher{
		svc:      svc,
		debounce: NewDebouncer(delay),
		timeout:  timeout,
		deliver:  deliver,
	}
}

// Schedule records key as the current query tuple and arms a debounced fetch.
// An incomplete key just cancels whatever was pending.
func (f *AvailabilityFetcher) Schedule(key models.AvailabilityKey) {
	f.mu.Lock()
	f.key = key
	f.mu.Unlock()

	if key.Zero() {
		f.debounce.Cancel()
		return
	}

	f.debounce.Trigger(func() {
		f.fetch(key)
	})
}

// Cancel drops any pending fetch without touching the current key.
func (f *AvailabilityFetcher) Cancel() {
	f.debounce.Cancel()
}

func (f *AvailabilityFetcher) fetch(key models.AvailabilityKey) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	avail, err := f.svc.FetchAvailability(ctx, key)

	f.mu.Lock()
	current := f.key == key
	f.mu.Unlock()
	if !current {
		utils.GetLogger().Debug("Discarding availability for superseded key",
			zap.String("date", key.Date),
			zap.String("treatmentId", key.TreatmentID))
		return
	}
	f.deliver(key, avail, err)
}

// availabilityKeyOf derives the query tuple from the session's selections.
func availabilityKeyOf(sess *models.WizardSession) models.AvailabilityKey {
	return models.AvailabilityKey{
		Date:        sess.Selection.Date,
		TreatmentID: sess.Selection.TreatmentID,
		DurationID:  sess.Selection.DurationID,
	}
}
