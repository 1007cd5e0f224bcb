package pricing

import (
	"context"
	"fmt"
	"time"

	catalogRepo "masu/database/repository/catalog"
	redemptionRepo "masu/database/repository/redemption"
	"masu/models"
	"masu/services/wizard"
)

// SurchargeRules parameterizes the time-based additions to the base price.
type SurchargeRules struct {
	EveningStart   string  // "15:04", inclusive
	EveningAmount  float64 // flat addition for evening appointments
	WeekendAmount  float64 // flat addition on weekend days
	WeekendDays    []time.Weekday
}

// DefaultSurchargeRules matches the studio's published price list.
func DefaultSurchargeRules() SurchargeRules {
	return SurchargeRules{
		EveningStart:  "18:00",
		EveningAmount: 20,
		WeekendAmount: 30,
		WeekendDays:   []time.Weekday{time.Friday, time.Saturday},
	}
}

// DefaultPriceService computes the price breakdown server-side: base price
// from the catalogue, time surcharges, coupon discount, then entitlement
// coverage, floored at zero.
type DefaultPriceService struct {
	Catalog     catalogRepo.CatalogRepository
	Redemptions redemptionRepo.RedemptionRepository
	Rules       SurchargeRules
}

func NewDefaultPriceService(catalog catalogRepo.CatalogRepository, redemptions redemptionRepo.RedemptionRepository) *DefaultPriceService {
	return &DefaultPriceService{
		Catalog:     catalog,
		Redemptions: redemptions,
		Rules:       DefaultSurchargeRules(),
	}
}

// QuotePrice builds the full breakdown for the request.
func (s *DefaultPriceService) QuotePrice(ctx context.Context, req wizard.PriceRequest) (*models.PriceQuote, error) {
	treatment, err := s.Catalog.GetByID(ctx, req.TreatmentID)
	if err != nil {
		return nil, fmt.Errorf("quote price: %w", err)
	}
	base := treatment.BasePriceFor(req.DurationID)
	if base <= 0 {
		return nil, fmt.Errorf("quote price: treatment %s has no price for duration %q", req.TreatmentID, req.DurationID)
	}

	quote := &models.PriceQuote{BasePrice: base}
	quote.Surcharges = s.surchargesFor(req.Date, req.Time)
	for _, sc := range quote.Surcharges {
		quote.TotalSurcharges += sc.Amount
	}
	subtotal := quote.BasePrice + quote.TotalSurcharges

	if req.CouponCode != "" {
		discount, couponID, err := s.couponDiscount(ctx, req.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		quote.Discount = discount
		quote.AppliedCouponID = couponID
	}

	remaining := subtotal - quote.Discount
	if remaining < 0 {
		remaining = 0
	}
	covered := applyCoverage(quote, req.Redemption, remaining)

	final := subtotal - quote.Discount - quote.VoucherApplied
	if final < 0 {
		final = 0
	}
	quote.FinalAmount = final
	quote.IsFullyCovered = covered && final == 0
	return quote, nil
}

func (s *DefaultPriceService) surchargesFor(date, t string) []models.Surcharge {
	var out []models.Surcharge
	if s.Rules.EveningAmount > 0 && s.Rules.EveningStart != "" && t >= s.Rules.EveningStart {
		out = append(out, models.Surcharge{Description: "Evening hours", Amount: s.Rules.EveningAmount})
	}
	if s.Rules.WeekendAmount > 0 {
		if day, err := time.Parse("2006-01-02", date); err == nil {
			for _, wd := range s.Rules.WeekendDays {
				if day.Weekday() == wd {
					out = append(out, models.Surcharge{Description: "Weekend", Amount: s.Rules.WeekendAmount})
					break
				}
			}
		}
	}
	return out
}

func (s *DefaultPriceService) couponDiscount(ctx context.Context, code string, subtotal float64) (float64, string, error) {
	coupon, err := s.Redemptions.GetCouponByCode(ctx, code)
	if err != nil {
		return 0, "", fmt.Errorf("quote price: %w", err)
	}
	if coupon == nil || !coupon.Active || time.Now().After(coupon.ValidUntil) {
		// An unusable coupon costs the discount, not the quote.
		return 0, "", nil
	}
	var discount float64
	switch coupon.DiscountType {
	case "percentage":
		discount = subtotal * coupon.DiscountValue / 100
	case "fixed":
		discount = coupon.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, coupon.CouponID, nil
}

// applyCoverage fills VoucherApplied from the active entitlement and reports
// whether the entitlement is of a kind that can fully cover the purchase.
func applyCoverage(quote *models.PriceQuote, red *models.Redemption, remaining float64) bool {
	if red == nil {
		return false
	}
	switch red.Kind {
	case models.RedemptionTreatmentVoucher:
		quote.VoucherApplied = remaining
		return true
	case models.RedemptionSubscription:
		quote.VoucherApplied = remaining
		return true
	case models.RedemptionMonetaryVoucher:
		if red.Voucher == nil {
			return false
		}
		applied := red.Voucher.RemainingAmount
		if applied > remaining {
			applied = remaining
		}
		quote.VoucherApplied = applied
		return applied >= remaining
	case models.RedemptionCoupon:
		if red.Coupon != nil && quote.Discount == 0 {
			subtotal := quote.BasePrice + quote.TotalSurcharges
			switch red.Coupon.DiscountType {
			case "percentage":
				quote.Discount = subtotal * red.Coupon.DiscountValue / 100
			case "fixed":
				quote.Discount = red.Coupon.DiscountValue
			}
			if quote.Discount > subtotal {
				quote.Discount = subtotal
			}
			quote.AppliedCouponID = red.Coupon.CouponID
		}
	}
	return false
}
