package models

import "time"

// Step identifies a wizard step. Ordinal order is the forward order of the flow.
type Step int

const (
	StepTreatmentSelection Step = iota + 1
	StepScheduling
	StepIdentity
	StepAddress
	StepSummary
	StepPayment
	StepConfirmation // terminal
)

func (s Step) String() string {
	switch s {
	case StepTreatmentSelection:
		return "treatment_selection"
	case StepScheduling:
		return "scheduling"
	case StepIdentity:
		return "identity"
	case StepAddress:
		return "address"
	case StepSummary:
		return "summary"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// FlowKind distinguishes a treatment booking from a gift voucher purchase.
// A gift voucher flow has no Scheduling or Address step.
type FlowKind string

const (
	FlowBooking     FlowKind = "booking"
	FlowGiftVoucher FlowKind = "gift_voucher"
)

// WizardSession is the aggregate root of one guided flow.
// The wizard controller is its single writer; everything else reads.
type WizardSession struct {
	SessionID   string      `json:"sessionId"`
	FlowKind    FlowKind    `json:"flowKind"`
	CurrentStep Step        `json:"currentStep"`
	Identity    PartialIdentity  `json:"identity"`
	Address     *PartialAddress  `json:"address,omitempty"`
	Selection   BookingSelection `json:"selection"`
	Voucher     *VoucherPurchase `json:"voucher,omitempty"`
	Price       *PriceQuote      `json:"price,omitempty"`
	Redemption  *Redemption      `json:"redemption,omitempty"`

	// PriceToken is the last issued price request token. A PriceQuote is
	// valid only while it was produced for this token (see price coordinator).
	PriceToken uint64 `json:"priceToken"`

	// Prefilled records, per identity field, the value auto-filled from the
	// active redemption. Clearing the redemption reverts a field only while
	// its current value still matches this record; user edits survive.
	Prefilled map[IdentityField]string `json:"prefilled,omitempty"`

	GuestHandle *GuestIdentityHandle `json:"guestHandle,omitempty"`
	MemberID    string               `json:"memberId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionSnapshot is the persisted form of an interrupted session.
type SessionSnapshot struct {
	SavedAt time.Time     `json:"savedAt"`
	State   WizardSession `json:"state"`
}
