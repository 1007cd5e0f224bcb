package models

// Surcharge is one named addition to the base price (evening hours, holidays).
type Surcharge struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// PriceQuote is the full price breakdown for the current selections.
// Invariant: FinalAmount = BasePrice + TotalSurcharges - Discount - VoucherApplied,
// floored at zero, and IsFullyCovered implies FinalAmount == 0.
type PriceQuote struct {
	BasePrice       float64     `json:"basePrice"`
	Surcharges      []Surcharge `json:"surcharges,omitempty"`
	TotalSurcharges float64     `json:"totalSurcharges"`
	Discount        float64     `json:"discount"`
	VoucherApplied  float64     `json:"voucherApplied"`
	FinalAmount     float64     `json:"finalAmount"`
	IsFullyCovered  bool        `json:"isFullyCovered"`

	AppliedCouponID string `json:"appliedCouponId,omitempty"`
}

// Consistent verifies the quote's arithmetic invariant.
func (q *PriceQuote) Consistent() bool {
	if q == nil {
		return false
	}
	sum := q.BasePrice + q.TotalSurcharges - q.Discount - q.VoucherApplied
	if sum < 0 {
		sum = 0
	}
	if q.FinalAmount != sum {
		return false
	}
	if q.IsFullyCovered && q.FinalAmount != 0 {
		return false
	}
	return true
}
