package models

import "time"

// SubmitBookingRequest is the single aggregate creation request sent to the
// booking collaborator on terminal submission.
type SubmitBookingRequest struct {
	SessionID  string           `json:"sessionId"`
	GuestID    string           `json:"guestId,omitempty"`
	MemberID   string           `json:"memberId,omitempty"`
	Identity   PartialIdentity  `json:"identity"`
	Address    *PartialAddress  `json:"address,omitempty"`
	Selection  BookingSelection `json:"selection"`
	Price      PriceQuote       `json:"price"`
	Redemption *Redemption      `json:"redemption,omitempty"`
	PaymentID  string           `json:"paymentId,omitempty"`
}

// SubmitVoucherRequest is the creation request for a gift voucher purchase.
type SubmitVoucherRequest struct {
	SessionID   string          `json:"sessionId"`
	GuestID     string          `json:"guestId,omitempty"`
	MemberID    string          `json:"memberId,omitempty"`
	Identity    PartialIdentity `json:"identity"`
	VoucherType string          `json:"voucherType"` // "monetary" or "treatment"
	TreatmentID string          `json:"treatmentId,omitempty"`
	DurationID  string          `json:"durationId,omitempty"`
	Amount      float64         `json:"amount"`
	Greeting    string          `json:"greeting,omitempty"`
	Price       PriceQuote      `json:"price"`
	PaymentID   string          `json:"paymentId,omitempty"`
}

// BookingRecord is the persisted outcome of a successful booking submission.
type BookingRecord struct {
	ConfirmationID string           `bson:"confirmationId" json:"confirmationId"`
	GuestID        string           `bson:"guestId,omitempty" json:"guestId,omitempty"`
	MemberID       string           `bson:"memberId,omitempty" json:"memberId,omitempty"`
	Identity       PartialIdentity  `bson:"identity" json:"identity"`
	Address        *PartialAddress  `bson:"address,omitempty" json:"address,omitempty"`
	Selection      BookingSelection `bson:"selection" json:"selection"`
	Price          PriceQuote       `bson:"price" json:"price"`
	Source         BookingSource    `bson:"source" json:"source"`
	PaymentID      string           `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	Status         string           `bson:"status" json:"status"` // "confirmed"
	CreatedAt      time.Time        `bson:"createdAt" json:"createdAt"`
}

// VoucherRecord is a stored gift voucher: written on purchase, read on
// redemption. RemainingAmount tracks a monetary voucher's spendable balance.
type VoucherRecord struct {
	VoucherID       string       `bson:"voucherId" json:"voucherId"`
	Code            string       `bson:"code" json:"code"`
	VoucherType     string       `bson:"voucherType" json:"voucherType"`
	TreatmentID     string       `bson:"treatmentId,omitempty" json:"treatmentId,omitempty"`
	DurationID      string       `bson:"durationId,omitempty" json:"durationId,omitempty"`
	Amount          float64      `bson:"amount" json:"amount"`
	RemainingAmount float64      `bson:"remainingAmount,omitempty" json:"remainingAmount,omitempty"`
	Greeting        string       `bson:"greeting,omitempty" json:"greeting,omitempty"`
	Purchaser       *ContactInfo `bson:"purchaser,omitempty" json:"purchaser,omitempty"`
	Recipient       *ContactInfo `bson:"recipient,omitempty" json:"recipient,omitempty"`
	GuestID         string       `bson:"guestId,omitempty" json:"guestId,omitempty"`
	MemberID        string       `bson:"memberId,omitempty" json:"memberId,omitempty"`
	Status          string       `bson:"status" json:"status"` // "active", "redeemed", "expired"
	ValidFrom       time.Time    `bson:"validFrom" json:"validFrom"`
	ValidUntil      time.Time    `bson:"validUntil" json:"validUntil"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
}

// CouponRecord is a stored discount coupon.
type CouponRecord struct {
	CouponID      string    `bson:"couponId" json:"couponId"`
	Code          string    `bson:"code" json:"code"`
	DiscountType  string    `bson:"discountType" json:"discountType"` // "percentage" or "fixed"
	DiscountValue float64   `bson:"discountValue" json:"discountValue"`
	Active        bool      `bson:"active" json:"active"`
	UsageLimit    int       `bson:"usageLimit,omitempty" json:"usageLimit,omitempty"`
	UsedCount     int       `bson:"usedCount" json:"usedCount"`
	ValidUntil    time.Time `bson:"validUntil" json:"validUntil"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

// SubscriptionRecord is a stored prepaid treatment package.
type SubscriptionRecord struct {
	SubscriptionID    string       `bson:"subscriptionId" json:"subscriptionId"`
	Code              string       `bson:"code,omitempty" json:"code,omitempty"`
	TreatmentID       string       `bson:"treatmentId" json:"treatmentId"`
	DurationID        string       `bson:"durationId,omitempty" json:"durationId,omitempty"`
	TotalQuantity     int          `bson:"totalQuantity" json:"totalQuantity"`
	RemainingQuantity int          `bson:"remainingQuantity" json:"remainingQuantity"`
	Guest             *ContactInfo `bson:"guest,omitempty" json:"guest,omitempty"`
	GuestID           string       `bson:"guestId,omitempty" json:"guestId,omitempty"`
	MemberID          string       `bson:"memberId,omitempty" json:"memberId,omitempty"`
	Status            string       `bson:"status" json:"status"` // "active", "depleted", "expired"
	ExpiryDate        time.Time    `bson:"expiryDate" json:"expiryDate"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
}

// PaymentIntentRef is the client-side handle to a created payment intent.
type PaymentIntentRef struct {
	IntentID     string  `json:"intentId"`
	ClientSecret string  `json:"clientSecret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// PaymentResult is the payment provider's success/failure callback payload.
type PaymentResult struct {
	IntentID  string `json:"intentId"`
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
