package wizard

import (
	"context"
	"time"

	"masu/models"
	"masu/utils"

	"go.uber.org/zap"
)

// SessionPersister writes debounced session snapshots keyed by the guest or
// member identity, so a burst of edits costs one write. Each save re-arms the
// abandoned-session reminder; discarding cancels both.
type SessionPersister struct {
	store     SnapshotStore
	reminders ReminderScheduler
	debounce  *Debouncer
	timeout   time.Duration
	reminder  time.Duration
}

func NewSessionPersister(store SnapshotStore, reminders ReminderScheduler, delay, reminderDelay time.Duration) *SessionPersister {
	return &SessionPersister{
		store:     store,
		reminders: reminders,
		debounce:  NewDebouncer(delay),
		timeout:   5 * time.Second,
		reminder:  reminderDelay,
	}
}

// Schedule arms a debounced save of the given session copy. The caller passes
// a copy taken under its own lock; by the time the timer fires the live
// session may have moved on, and that is fine, the next edit schedules again.
func (p *SessionPersister) Schedule(identityID string, sess models.WizardSession) {
	if identityID == "" {
		return
	}
	p.debounce.Trigger(func() {
		p.save(identityID, sess)
	})
}

func (p *SessionPersister) save(identityID string, sess models.WizardSession) {
	logger := utils.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	snap := models.SessionSnapshot{SavedAt: time.Now(), State: sess}
	if err := p.store.Save(ctx, identityID, snap); err != nil {
		logger.Warn("Session snapshot save failed",
			zap.String("identityId", identityID), zap.Error(err))
		return
	}
	if p.reminders != nil {
		if err := p.reminders.ScheduleAbandoned(ctx, identityID, p.reminder); err != nil {
			logger.Warn("Abandoned reminder scheduling failed",
				zap.String("identityId", identityID), zap.Error(err))
		}
	}
	logger.Debug("Session snapshot saved",
		zap.String("identityId", identityID),
		zap.String("step", sess.CurrentStep.String()))
}

// Restore loads the stored snapshot for the identity, if any.
func (p *SessionPersister) Restore(ctx context.Context, identityID string) (*models.SessionSnapshot, error) {
	if identityID == "" {
		return nil, nil
	}
	return p.store.Load(ctx, identityID)
}

// Discard cancels any pending save and reminder and deletes the snapshot.
// Called on terminal submission and on an explicit fresh start.
func (p *SessionPersister) Discard(ctx context.Context, identityID string) {
	p.debounce.Cancel()
	if identityID == "" {
		return
	}
	if err := p.store.Delete(ctx, identityID); err != nil {
		utils.GetLogger().Warn("Session snapshot delete failed",
			zap.String("identityId", identityID), zap.Error(err))
	}
	if p.reminders != nil {
		_ = p.reminders.CancelAbandoned(ctx, identityID)
	}
}

// Stop drops any pending save without touching stored state.
func (p *SessionPersister) Stop() {
	p.debounce.Cancel()
}
