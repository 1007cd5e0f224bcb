package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderRepo "masu/database/repository/order"
	redemptionRepo "masu/database/repository/redemption"
	"masu/models"
	"masu/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultOrderService performs the terminal writes: the confirmed booking or
// the purchased voucher, plus consumption of whatever entitlement funded it.
type DefaultOrderService struct {
	Orders      orderRepo.OrderRepository
	Redemptions redemptionRepo.RedemptionRepository
	VoucherTTL  time.Duration
}

func NewDefaultOrderService(orders orderRepo.OrderRepository, redemptions redemptionRepo.RedemptionRepository) *DefaultOrderService {
	return &DefaultOrderService{
		Orders:      orders,
		Redemptions: redemptions,
		VoucherTTL:  365 * 24 * time.Hour,
	}
}

// SubmitBooking writes the booking record and consumes the applied
// entitlement. The consumption is best effort after the booking exists; a
// failed deduction is logged for reconciliation rather than unwinding the
// confirmed booking.
func (s *DefaultOrderService) SubmitBooking(ctx context.Context, req models.SubmitBookingRequest) (string, error) {
	rec := &models.BookingRecord{
		ConfirmationID: newConfirmationID("BK"),
		GuestID:        req.GuestID,
		MemberID:       req.MemberID,
		Identity:       req.Identity,
		Address:        req.Address,
		Selection:      req.Selection,
		Price:          req.Price,
		Source:         req.Selection.Source,
		PaymentID:      req.PaymentID,
		Status:         "confirmed",
	}
	if err := s.Orders.CreateBooking(ctx, rec); err != nil {
		return "", fmt.Errorf("submit booking: %w", err)
	}

	s.consume(ctx, req.Redemption, req.Price)

	utils.GetLogger().Info("Booking created",
		zap.String("confirmationId", rec.ConfirmationID),
		zap.String("source", string(rec.Source)))
	return rec.ConfirmationID, nil
}

// SubmitVoucherPurchase writes the purchased voucher with a fresh redemption
// code and returns the voucher id as confirmation.
func (s *DefaultOrderService) SubmitVoucherPurchase(ctx context.Context, req models.SubmitVoucherRequest) (string, error) {
	now := time.Now()
	rec := &models.VoucherRecord{
		VoucherID:   newConfirmationID("GV"),
		Code:        newVoucherCode(),
		VoucherType: req.VoucherType,
		TreatmentID: req.TreatmentID,
		DurationID:  req.DurationID,
		Amount:      req.Amount,
		Greeting:    req.Greeting,
		Purchaser: &models.ContactInfo{
			FirstName: req.Identity.FirstName,
			LastName:  req.Identity.LastName,
			Email:     req.Identity.Email,
			Phone:     req.Identity.Phone,
		},
		GuestID:    req.GuestID,
		MemberID:   req.MemberID,
		Status:     "active",
		ValidFrom:  now,
		ValidUntil: now.Add(s.VoucherTTL),
	}
	if rec.VoucherType == "monetary" {
		rec.RemainingAmount = req.Amount
	}
	if req.Identity.Recipient != nil {
		rec.Recipient = req.Identity.Recipient
	}
	if err := s.Orders.CreateVoucher(ctx, rec); err != nil {
		return "", fmt.Errorf("submit voucher purchase: %w", err)
	}

	utils.GetLogger().Info("Gift voucher created",
		zap.String("voucherId", rec.VoucherID),
		zap.String("voucherType", rec.VoucherType))
	return rec.VoucherID, nil
}

func (s *DefaultOrderService) consume(ctx context.Context, red *models.Redemption, price models.PriceQuote) {
	if red == nil {
		if price.AppliedCouponID != "" {
			if err := s.Redemptions.IncrementCouponUse(ctx, price.AppliedCouponID); err != nil {
				utils.GetLogger().Warn("Coupon use not recorded", zap.Error(err))
			}
		}
		return
	}
	logger := utils.GetLogger()
	var err error
	switch red.Kind {
	case models.RedemptionCoupon:
		if red.Coupon != nil {
			err = s.Redemptions.IncrementCouponUse(ctx, red.Coupon.CouponID)
		}
	case models.RedemptionTreatmentVoucher, models.RedemptionMonetaryVoucher:
		if red.Voucher != nil {
			err = s.Redemptions.ConsumeVoucher(ctx, red.Voucher.VoucherID, price.VoucherApplied)
		}
	case models.RedemptionSubscription:
		if red.Subscription != nil {
			err = s.Redemptions.ConsumeSubscriptionUnit(ctx, red.Subscription.SubscriptionID)
		}
	}
	if err != nil {
		logger.Error("Entitlement consumption failed, needs reconciliation",
			zap.String("kind", string(red.Kind)), zap.Error(err))
	}
}

func newConfirmationID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}

func newVoucherCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
