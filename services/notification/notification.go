package notification

import (
	"context"
	"fmt"

	guestRepo "masu/database/repository/guest"
	"masu/utils"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// NotificationService defines methods for sending FCM pushes to guests.
type NotificationService interface {
	BookingConfirmed(ctx context.Context, guestID, confirmationID string) error
	SendAbandonedReminder(ctx context.Context, guestID string) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	guests guestRepo.GuestRepository
}

func NewDefaultNotificationService(guests guestRepo.GuestRepository) (*DefaultNotificationService, error) {
	if guests == nil {
		return nil, fmt.Errorf("notification service initialization error: guest repository is nil")
	}
	return &DefaultNotificationService{guests: guests}, nil
}

// BookingConfirmed pushes the confirmation to the booking guest.
func (s *DefaultNotificationService) BookingConfirmed(ctx context.Context, guestID, confirmationID string) error {
	return s.push(ctx, guestID,
		"Booking confirmed",
		fmt.Sprintf("Your booking %s is confirmed. See you soon!", confirmationID),
		map[string]string{"type": "booking_confirmed", "confirmationId": confirmationID})
}

// SendAbandonedReminder nudges a guest with an interrupted purchase.
func (s *DefaultNotificationService) SendAbandonedReminder(ctx context.Context, guestID string) error {
	return s.push(ctx, guestID,
		"Your booking is waiting",
		"You left a booking unfinished. Pick up right where you stopped.",
		map[string]string{"type": "abandoned_reminder"})
}

func (s *DefaultNotificationService) push(ctx context.Context, guestID, title, body string, data map[string]string) error {
	guest, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		return fmt.Errorf("push: could not find guest %s: %w", guestID, err)
	}
	if guest.FCMToken == "" {
		utils.GetLogger().Debug("Guest has no push token", zap.String("guestId", guestID))
		return nil
	}

	msg := &messaging.Message{
		Token: guest.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("push: failed to send FCM message: %w", err)
	}
	return nil
}
