package wizard

import (
	"masu/models"
)

// stepOrders is the transition table: the forward order of steps per flow kind.
// A gift voucher purchase has no scheduling or address step.
var stepOrders = map[models.FlowKind][]models.Step{
	models.FlowBooking: {
		models.StepTreatmentSelection,
		models.StepScheduling,
		models.StepIdentity,
		models.StepAddress,
		models.StepSummary,
		models.StepPayment,
		models.StepConfirmation,
	},
	models.FlowGiftVoucher: {
		models.StepTreatmentSelection,
		models.StepIdentity,
		models.StepSummary,
		models.StepPayment,
		models.StepConfirmation,
	},
}

// Machine is the explicit step state machine for one flow kind.
type Machine struct {
	flow models.FlowKind
}

func NewMachine(flow models.FlowKind) Machine {
	if _, ok := stepOrders[flow]; !ok {
		flow = models.FlowBooking
	}
	return Machine{flow: flow}
}

// Steps returns the ordered steps of this flow.
func (m Machine) Steps() []models.Step {
	return stepOrders[m.flow]
}

// First returns the initial step of the flow.
func (m Machine) First() models.Step {
	return stepOrders[m.flow][0]
}

// Next returns the step after s, if any.
func (m Machine) Next(s models.Step) (models.Step, bool) {
	order := stepOrders[m.flow]
	for i, step := range order {
		if step == s && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return 0, false
}

// Prev returns the step before s, if any. Backward movement is always
// permitted; the machine only answers where it leads.
func (m Machine) Prev(s models.Step) (models.Step, bool) {
	order := stepOrders[m.flow]
	for i, step := range order {
		if step == s && i > 0 {
			return order[i-1], true
		}
	}
	return 0, false
}

// Contains reports whether s belongs to this flow at all.
func (m Machine) Contains(s models.Step) bool {
	for _, step := range stepOrders[m.flow] {
		if step == s {
			return true
		}
	}
	return false
}

// Guard checks that the session satisfies step s's required fields, i.e.
// that a forward transition out of s is permitted. The selected treatment is
// needed to decide whether a duration is required.
func (m Machine) Guard(s models.Step, sess *models.WizardSession, treatment *models.Treatment) error {
	switch s {
	case models.StepTreatmentSelection:
		if m.flow == models.FlowGiftVoucher {
			v := sess.Voucher
			switch {
			case v == nil:
				return NewValidationError("voucher", "choose a voucher to continue")
			case v.VoucherType == "monetary" && v.Amount <= 0:
				return NewValidationError("amount", "enter a voucher amount to continue")
			case v.VoucherType == "treatment" && v.TreatmentID == "":
				return NewValidationError("treatmentId", "select a treatment to gift")
			}
			return nil
		}
		if sess.Selection.TreatmentID == "" {
			return NewValidationError("treatmentId", "select a treatment to continue")
		}
		if treatment != nil && treatment.PricingType == models.PricingDurationBased && sess.Selection.DurationID == "" {
			return NewValidationError("durationId", "select a duration to continue")
		}
	case models.StepScheduling:
		if sess.Selection.Date == "" || sess.Selection.Time == "" {
			return NewValidationError("dateTime", "pick a date and time to continue")
		}
	case models.StepIdentity:
		id := sess.Identity
		switch {
		case id.FirstName == "":
			return NewValidationError("firstName", "first name is required")
		case id.LastName == "":
			return NewValidationError("lastName", "last name is required")
		case id.Email == "":
			return NewValidationError("email", "email is required")
		case id.Phone == "":
			return NewValidationError("phone", "phone is required")
		}
		if id.IsBookingForSomeoneElse {
			r := id.Recipient
			if r == nil || r.FirstName == "" || r.LastName == "" || r.Phone == "" {
				return NewValidationError("recipient", "recipient name and phone are required")
			}
		}
	case models.StepAddress:
		if !sess.Address.Complete() {
			return NewValidationError("address", "city, street and house number are required")
		}
	case models.StepSummary:
		// A missing or failed quote disables forward progress past Summary.
		if sess.Price == nil {
			return NewValidationError("price", "no price available for the current selections")
		}
	case models.StepPayment:
		// Leaving Payment forward happens only through the payment callback.
		return NewStateError("payment must complete through the payment callback")
	case models.StepConfirmation:
		return NewStateError("the flow has already finished")
	}
	return nil
}
