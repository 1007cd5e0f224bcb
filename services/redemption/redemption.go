package redemption

import (
	"context"
	"fmt"
	"time"

	redemptionRepo "masu/database/repository/redemption"
	"masu/models"
	"masu/services/wizard"
)

// DefaultRedemptionService validates codes and ids against the entitlement
// collections and normalizes them into redemption descriptors. Rejections are
// typed so the wizard can surface expired and consumed distinctly.
type DefaultRedemptionService struct {
	Repo redemptionRepo.RedemptionRepository
}

func NewDefaultRedemptionService(repo redemptionRepo.RedemptionRepository) *DefaultRedemptionService {
	return &DefaultRedemptionService{Repo: repo}
}

// ResolveCode tries the code against coupons, gift vouchers and subscription
// codes, in that order.
func (s *DefaultRedemptionService) ResolveCode(ctx context.Context, code string) (*models.Redemption, error) {
	if code == "" {
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "empty code")
	}

	coupon, err := s.Repo.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if coupon != nil {
		return s.couponRedemption(coupon, code)
	}

	voucher, err := s.Repo.GetVoucherByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if voucher != nil {
		return s.voucherRedemption(voucher, code)
	}

	sub, err := s.Repo.GetSubscriptionByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve code: %w", err)
	}
	if sub != nil {
		return s.subscriptionRedemption(sub, code)
	}

	return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "unknown code")
}

// ResolveVoucher resolves an owned gift voucher by id.
func (s *DefaultRedemptionService) ResolveVoucher(ctx context.Context, voucherID string) (*models.Redemption, error) {
	voucher, err := s.Repo.GetVoucherByID(ctx, voucherID)
	if err != nil {
		return nil, fmt.Errorf("resolve voucher: %w", err)
	}
	if voucher == nil {
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "unknown voucher")
	}
	return s.voucherRedemption(voucher, voucher.Code)
}

// ResolveSubscription resolves an active subscription by id.
func (s *DefaultRedemptionService) ResolveSubscription(ctx context.Context, subscriptionID string) (*models.Redemption, error) {
	sub, err := s.Repo.GetSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}
	if sub == nil {
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "unknown subscription")
	}
	return s.subscriptionRedemption(sub, sub.Code)
}

func (s *DefaultRedemptionService) couponRedemption(rec *models.CouponRecord, code string) (*models.Redemption, error) {
	if !rec.Active {
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "coupon is disabled")
	}
	if time.Now().After(rec.ValidUntil) {
		return nil, wizard.NewEntitlementError(wizard.ReasonExpired, "coupon has expired")
	}
	if rec.UsageLimit > 0 && rec.UsedCount >= rec.UsageLimit {
		return nil, wizard.NewEntitlementError(wizard.ReasonConsumed, "coupon has been used up")
	}
	return &models.Redemption{
		Kind: models.RedemptionCoupon,
		Code: code,
		Coupon: &models.CouponPayload{
			CouponID:      rec.CouponID,
			DiscountType:  rec.DiscountType,
			DiscountValue: rec.DiscountValue,
			ValidUntil:    rec.ValidUntil,
		},
	}, nil
}

func (s *DefaultRedemptionService) voucherRedemption(rec *models.VoucherRecord, code string) (*models.Redemption, error) {
	switch rec.Status {
	case "redeemed":
		return nil, wizard.NewEntitlementError(wizard.ReasonConsumed, "voucher has already been redeemed")
	case "expired":
		return nil, wizard.NewEntitlementError(wizard.ReasonExpired, "voucher has expired")
	case "active":
	default:
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "voucher is not redeemable")
	}
	if !rec.ValidUntil.IsZero() && time.Now().After(rec.ValidUntil) {
		return nil, wizard.NewEntitlementError(wizard.ReasonExpired, "voucher has expired")
	}

	kind := models.RedemptionMonetaryVoucher
	if rec.VoucherType == "treatment" {
		kind = models.RedemptionTreatmentVoucher
	} else if rec.RemainingAmount <= 0 {
		return nil, wizard.NewEntitlementError(wizard.ReasonConsumed, "voucher balance is spent")
	}
	return &models.Redemption{
		Kind: kind,
		Code: code,
		Voucher: &models.VoucherPayload{
			VoucherID:       rec.VoucherID,
			VoucherType:     rec.VoucherType,
			RemainingAmount: rec.RemainingAmount,
			TreatmentID:     rec.TreatmentID,
			DurationID:      rec.DurationID,
			Amount:          rec.Amount,
			Purchaser:       rec.Purchaser,
			Recipient:       rec.Recipient,
			Status:          rec.Status,
			ValidUntil:      rec.ValidUntil,
		},
	}, nil
}

func (s *DefaultRedemptionService) subscriptionRedemption(rec *models.SubscriptionRecord, code string) (*models.Redemption, error) {
	switch rec.Status {
	case "depleted":
		return nil, wizard.NewEntitlementError(wizard.ReasonConsumed, "subscription has no remaining sessions")
	case "expired":
		return nil, wizard.NewEntitlementError(wizard.ReasonExpired, "subscription has expired")
	case "active":
	default:
		return nil, wizard.NewEntitlementError(wizard.ReasonInvalid, "subscription is not usable")
	}
	if time.Now().After(rec.ExpiryDate) {
		return nil, wizard.NewEntitlementError(wizard.ReasonExpired, "subscription has expired")
	}
	if rec.RemainingQuantity <= 0 {
		return nil, wizard.NewEntitlementError(wizard.ReasonConsumed, "subscription has no remaining sessions")
	}
	return &models.Redemption{
		Kind: models.RedemptionSubscription,
		Code: code,
		Subscription: &models.SubscriptionPayload{
			SubscriptionID:    rec.SubscriptionID,
			TreatmentID:       rec.TreatmentID,
			DurationID:        rec.DurationID,
			RemainingQuantity: rec.RemainingQuantity,
			TotalQuantity:     rec.TotalQuantity,
			Guest:             rec.Guest,
			Status:            rec.Status,
			ExpiryDate:        rec.ExpiryDate,
		},
	}, nil
}
