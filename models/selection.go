package models

// BookingSource records how the purchase is funded.
type BookingSource string

const (
	SourceNewPurchase            BookingSource = "new_purchase"
	SourceGiftVoucherRedemption  BookingSource = "gift_voucher_redemption"
	SourceSubscriptionRedemption BookingSource = "subscription_redemption"
)

// BookingSelection carries the visitor's current choices.
type BookingSelection struct {
	TreatmentID string `json:"treatmentId,omitempty"`
	DurationID  string `json:"durationId,omitempty"`
	Date        string `json:"date,omitempty"` // "2006-01-02"
	Time        string `json:"time,omitempty"` // "15:04"

	TherapistGenderPreference string `json:"therapistGenderPreference,omitempty"` // "male", "female", "any"

	Source         BookingSource `json:"source"`
	RedemptionCode string        `json:"redemptionCode,omitempty"`
	GiftVoucherID  string        `json:"giftVoucherId,omitempty"`
	SubscriptionID string        `json:"subscriptionId,omitempty"`
	CouponCode     string        `json:"couponCode,omitempty"`
}

// VoucherPurchase carries the gift voucher flow's selections: either a
// monetary amount or a specific treatment to gift.
type VoucherPurchase struct {
	VoucherType string  `json:"voucherType"` // "monetary" or "treatment"
	TreatmentID string  `json:"treatmentId,omitempty"`
	DurationID  string  `json:"durationId,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Greeting    string  `json:"greeting,omitempty"`
}

// AvailabilityKey scopes a slot list to exactly one query tuple.
type AvailabilityKey struct {
	Date        string `json:"date"`
	TreatmentID string `json:"treatmentId"`
	DurationID  string `json:"durationId,omitempty"`
}

// Zero reports whether the key is incomplete and no fetch should be issued.
func (k AvailabilityKey) Zero() bool {
	return k.Date == "" || k.TreatmentID == ""
}
