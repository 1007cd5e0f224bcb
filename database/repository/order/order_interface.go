package orderRepo

import (
	"context"

	"masu/models"
)

// OrderRepository defines the interface for persisted bookings and purchased
// gift vouchers.
type OrderRepository interface {
	CreateBooking(ctx context.Context, rec *models.BookingRecord) error
	GetBooking(ctx context.Context, confirmationID string) (*models.BookingRecord, error)
	ListBookingsByGuest(ctx context.Context, guestID string) ([]models.BookingRecord, error)
	ListBookingsByDate(ctx context.Context, date string) ([]models.BookingRecord, error)

	CreateVoucher(ctx context.Context, rec *models.VoucherRecord) error
}
