package redemptionRepo

import (
	"context"

	"masu/models"
)

// RedemptionRepository defines the interface for entitlement lookups and
// consumption bookkeeping across coupons, gift vouchers and subscriptions.
type RedemptionRepository interface {
	GetCouponByCode(ctx context.Context, code string) (*models.CouponRecord, error)
	GetVoucherByCode(ctx context.Context, code string) (*models.VoucherRecord, error)
	GetVoucherByID(ctx context.Context, voucherID string) (*models.VoucherRecord, error)
	GetSubscriptionByCode(ctx context.Context, code string) (*models.SubscriptionRecord, error)
	GetSubscriptionByID(ctx context.Context, subscriptionID string) (*models.SubscriptionRecord, error)

	IncrementCouponUse(ctx context.Context, couponID string) error
	ConsumeVoucher(ctx context.Context, voucherID string, amount float64) error
	ConsumeSubscriptionUnit(ctx context.Context, subscriptionID string) error
}
