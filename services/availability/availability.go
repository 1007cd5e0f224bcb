package availability

import (
	"context"
	"fmt"
	"time"

	orderRepo "masu/database/repository/order"
	"masu/models"
)

// WorkingHours bounds the bookable day.
type WorkingHours struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

// DefaultWorkingHours is the studio schedule.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{OpenHour: 9, CloseHour: 21, SlotMinutes: 30}
}

// DefaultAvailabilityService derives the slot grid from working hours and
// marks times already taken by a confirmed booking as unavailable.
type DefaultAvailabilityService struct {
	Orders       orderRepo.OrderRepository
	Hours        WorkingHours
	EveningStart string
	EveningFee   float64

	// now is replaceable for tests.
	now func() time.Time
}

func NewDefaultAvailabilityService(orders orderRepo.OrderRepository) *DefaultAvailabilityService {
	return &DefaultAvailabilityService{
		Orders:       orders,
		Hours:        DefaultWorkingHours(),
		EveningStart: "18:00",
		EveningFee:   20,
		now:          time.Now,
	}
}

// FetchAvailability lists every slot of the day for the key's date. Past
// times on the current day are excluded entirely rather than shown as taken.
func (s *DefaultAvailabilityService) FetchAvailability(ctx context.Context, key models.AvailabilityKey) (*models.Availability, error) {
	day, err := time.Parse("2006-01-02", key.Date)
	if err != nil {
		return nil, fmt.Errorf("fetch availability: bad date %q: %w", key.Date, err)
	}

	taken := make(map[string]bool)
	if s.Orders != nil {
		bookings, err := s.Orders.ListBookingsByDate(ctx, key.Date)
		if err != nil {
			return nil, fmt.Errorf("fetch availability: %w", err)
		}
		for _, b := range bookings {
			taken[b.Selection.Time] = true
		}
	}

	now := s.now()
	today := day.Year() == now.Year() && day.YearDay() == now.YearDay()
	cursor := time.Date(day.Year(), day.Month(), day.Day(), s.Hours.OpenHour, 0, 0, 0, time.Local)
	end := time.Date(day.Year(), day.Month(), day.Day(), s.Hours.CloseHour, 0, 0, 0, time.Local)

	avail := &models.Availability{
		Note: fmt.Sprintf("Open %02d:00 to %02d:00", s.Hours.OpenHour, s.Hours.CloseHour),
	}
	for cursor.Before(end) {
		start := cursor
		t := cursor.Format("15:04")
		cursor = cursor.Add(time.Duration(s.Hours.SlotMinutes) * time.Minute)
		if today && !start.After(now) {
			continue
		}
		slot := models.TimeSlot{Time: t, IsAvailable: !taken[t]}
		if s.EveningFee > 0 && t >= s.EveningStart {
			slot.Surcharge = s.EveningFee
			slot.Reason = "Evening hours"
		}
		avail.Slots = append(avail.Slots, slot)
	}
	return avail, nil
}
