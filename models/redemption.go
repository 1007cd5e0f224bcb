package models

import "time"

// RedemptionKind classifies the applied entitlement.
type RedemptionKind string

const (
	RedemptionCoupon           RedemptionKind = "coupon"
	RedemptionTreatmentVoucher RedemptionKind = "treatment_voucher"
	RedemptionMonetaryVoucher  RedemptionKind = "monetary_voucher"
	RedemptionSubscription     RedemptionKind = "subscription"
)

// Redemption is the single active entitlement applied to a session.
// Exactly one of the payload pointers is set, matching Kind.
type Redemption struct {
	Kind RedemptionKind `json:"kind"`
	Code string         `json:"code,omitempty"`

	Coupon       *CouponPayload       `json:"coupon,omitempty"`
	Voucher      *VoucherPayload      `json:"voucher,omitempty"`
	Subscription *SubscriptionPayload `json:"subscription,omitempty"`

	// LockedFields is derived from the payload, never stored independently.
	LockedFields []IdentityField `json:"lockedFields,omitempty"`
}

// Locked reports whether the given identity field is locked by this redemption.
func (r *Redemption) Locked(f IdentityField) bool {
	if r == nil {
		return false
	}
	for _, lf := range r.LockedFields {
		if lf == f {
			return true
		}
	}
	return false
}

// BoundTreatment returns the treatment/duration binding forced by the
// redemption, if any. Monetary vouchers and coupons bind nothing.
func (r *Redemption) BoundTreatment() (treatmentID, durationID string, bound bool) {
	if r == nil {
		return "", "", false
	}
	switch r.Kind {
	case RedemptionTreatmentVoucher:
		if r.Voucher != nil && r.Voucher.TreatmentID != "" {
			return r.Voucher.TreatmentID, r.Voucher.DurationID, true
		}
	case RedemptionSubscription:
		if r.Subscription != nil && r.Subscription.TreatmentID != "" {
			return r.Subscription.TreatmentID, r.Subscription.DurationID, true
		}
	}
	return "", "", false
}

// CouponPayload describes a discount rule.
type CouponPayload struct {
	CouponID      string    `bson:"couponId" json:"couponId"`
	DiscountType  string    `bson:"discountType" json:"discountType"` // "percentage" or "fixed"
	DiscountValue float64   `bson:"discountValue" json:"discountValue"`
	ValidUntil    time.Time `bson:"validUntil" json:"validUntil"`
}

// VoucherPayload describes a gift voucher, monetary or treatment-bound.
type VoucherPayload struct {
	VoucherID   string `bson:"voucherId" json:"voucherId"`
	VoucherType string `bson:"voucherType" json:"voucherType"` // "monetary" or "treatment"

	// Monetary vouchers carry a spendable balance.
	RemainingAmount float64 `bson:"remainingAmount,omitempty" json:"remainingAmount,omitempty"`

	// Treatment vouchers are bound to a specific treatment (and maybe duration).
	TreatmentID string  `bson:"treatmentId,omitempty" json:"treatmentId,omitempty"`
	DurationID  string  `bson:"durationId,omitempty" json:"durationId,omitempty"`
	Amount      float64 `bson:"amount,omitempty" json:"amount,omitempty"`

	Purchaser *ContactInfo `bson:"purchaser,omitempty" json:"purchaser,omitempty"`
	Recipient *ContactInfo `bson:"recipient,omitempty" json:"recipient,omitempty"`

	Status     string    `bson:"status" json:"status"`
	ValidUntil time.Time `bson:"validUntil" json:"validUntil"`
}

// SubscriptionPayload describes a prepaid treatment package.
type SubscriptionPayload struct {
	SubscriptionID    string       `bson:"subscriptionId" json:"subscriptionId"`
	TreatmentID       string       `bson:"treatmentId" json:"treatmentId"`
	DurationID        string       `bson:"durationId,omitempty" json:"durationId,omitempty"`
	RemainingQuantity int          `bson:"remainingQuantity" json:"remainingQuantity"`
	TotalQuantity     int          `bson:"totalQuantity" json:"totalQuantity"`
	Guest             *ContactInfo `bson:"guest,omitempty" json:"guest,omitempty"`
	Status            string       `bson:"status" json:"status"`
	ExpiryDate        time.Time    `bson:"expiryDate" json:"expiryDate"`
}
