package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"masu/config"
	"masu/services/notification"
	"masu/services/wizard"

	"github.com/hibiken/asynq"
)

const TypeAbandonedReminder = "session:abandoned_reminder"

type abandonedPayload struct {
	IdentityID string `json:"identityId"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqReminderScheduler queues abandoned-session reminders. The task id is
// derived from the identity, so each new save replaces the pending reminder
// instead of stacking another one.
type AsynqReminderScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewAsynqReminderScheduler() *AsynqReminderScheduler {
	opts := redisOpts()
	return &AsynqReminderScheduler{
		client:    asynq.NewClient(opts),
		inspector: asynq.NewInspector(opts),
	}
}

func reminderTaskID(identityID string) string {
	return fmt.Sprintf("abandoned:%s", identityID)
}

// ScheduleAbandoned (re)queues the reminder to fire after delay.
func (s *AsynqReminderScheduler) ScheduleAbandoned(ctx context.Context, identityID string, delay time.Duration) error {
	// Drop the pending task first; enqueueing a duplicate task id fails.
	_ = s.inspector.DeleteTask("default", reminderTaskID(identityID))

	payload, err := json.Marshal(abandonedPayload{IdentityID: identityID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeAbandonedReminder, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(reminderTaskID(identityID)),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(3))
	return err
}

// CancelAbandoned removes the pending reminder, if any.
func (s *AsynqReminderScheduler) CancelAbandoned(ctx context.Context, identityID string) error {
	err := s.inspector.DeleteTask("default", reminderTaskID(identityID))
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
		return err
	}
	return nil
}

// Close releases the underlying queue connections.
func (s *AsynqReminderScheduler) Close() error {
	return s.client.Close()
}

// InitReminderWorker runs the async worker in background.
func InitReminderWorker(notifSvc notification.NotificationService, snapshots wizard.SnapshotStore) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAbandonedReminder, handleAbandonedTask(notifSvc, snapshots))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleAbandonedTask(notifSvc notification.NotificationService, snapshots wizard.SnapshotStore) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p abandonedPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		// The session may have completed or been discarded since scheduling.
		snap, err := snapshots.Load(ctx, p.IdentityID)
		if err != nil {
			return err
		}
		if snap == nil {
			return nil
		}

		log.Printf("[ReminderHandler] nudging %s about session saved at %s",
			p.IdentityID, snap.SavedAt.Format(time.RFC3339))
		if err := notifSvc.SendAbandonedReminder(ctx, p.IdentityID); err != nil {
			// Members and tokenless guests have no push target; not retryable.
			log.Printf("[ReminderHandler] reminder not delivered: %v", err)
		}
		return nil
	}
}
