package wizard

import (
	"masu/models"
)

// entitlementContact picks the identity source carried by a redemption.
// Gift vouchers prefer the recipient over the purchaser; subscriptions carry
// the subscribed guest.
func entitlementContact(r *models.Redemption) *models.ContactInfo {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case models.RedemptionTreatmentVoucher, models.RedemptionMonetaryVoucher:
		if r.Voucher == nil {
			return nil
		}
		if r.Voucher.Recipient != nil {
			return r.Voucher.Recipient
		}
		return r.Voucher.Purchaser
	case models.RedemptionSubscription:
		if r.Subscription != nil {
			return r.Subscription.Guest
		}
	}
	return nil
}

// lockedFieldsFor derives which identity fields the redemption locks. A gift
// contact always carries its owner's name, so in practice names lock whenever
// a gift source is present. A field is never locked to an empty value; a
// contact without an email or phone leaves that field editable.
func lockedFieldsFor(r *models.Redemption) []models.IdentityField {
	c := entitlementContact(r)
	if c == nil {
		return nil
	}
	var locked []models.IdentityField
	if c.FirstName != "" {
		locked = append(locked, models.FieldFirstName)
	}
	if c.LastName != "" {
		locked = append(locked, models.FieldLastName)
	}
	if c.Email != "" {
		locked = append(locked, models.FieldEmail)
	}
	if c.Phone != "" {
		locked = append(locked, models.FieldPhone)
	}
	return locked
}

// sourceFor maps a redemption kind to the booking's funding source.
func sourceFor(kind models.RedemptionKind) models.BookingSource {
	switch kind {
	case models.RedemptionTreatmentVoucher, models.RedemptionMonetaryVoucher:
		return models.SourceGiftVoucherRedemption
	case models.RedemptionSubscription:
		return models.SourceSubscriptionRedemption
	}
	return models.SourceNewPurchase
}

// applyEntitlement installs a resolved redemption on the session: identity
// prefill with provenance tracking, field locks, treatment binding, and the
// funding source. A signed-in member's own identity wins over the
// entitlement's contact for unlocked fields.
func applyEntitlement(sess *models.WizardSession, r *models.Redemption) {
	r.LockedFields = lockedFieldsFor(r)
	sess.Redemption = r

	if c := entitlementContact(r); c != nil {
		if sess.Prefilled == nil {
			sess.Prefilled = make(map[models.IdentityField]string)
		}
		fill := func(f models.IdentityField, v string) {
			if v == "" {
				return
			}
			// Unlocked fields already holding a value keep it.
			if !r.Locked(f) && sess.Identity.Field(f) != "" {
				return
			}
			sess.Identity.SetField(f, v)
			sess.Prefilled[f] = v
		}
		fill(models.FieldFirstName, c.FirstName)
		fill(models.FieldLastName, c.LastName)
		fill(models.FieldEmail, c.Email)
		fill(models.FieldPhone, c.Phone)
		if c.BirthDate != nil && sess.Identity.BirthDate == nil {
			sess.Identity.BirthDate = c.BirthDate
		}
		if c.Gender != "" && sess.Identity.Gender == "" {
			sess.Identity.Gender = c.Gender
		}
	}

	if treatmentID, durationID, bound := r.BoundTreatment(); bound {
		sess.Selection.TreatmentID = treatmentID
		if durationID != "" {
			sess.Selection.DurationID = durationID
		}
	}

	sess.Selection.Source = sourceFor(r.Kind)
	sess.Selection.RedemptionCode = r.Code
	sess.Selection.GiftVoucherID = ""
	sess.Selection.SubscriptionID = ""
	sess.Selection.CouponCode = ""
	switch r.Kind {
	case models.RedemptionTreatmentVoucher, models.RedemptionMonetaryVoucher:
		if r.Voucher != nil {
			sess.Selection.GiftVoucherID = r.Voucher.VoucherID
		}
	case models.RedemptionSubscription:
		if r.Subscription != nil {
			sess.Selection.SubscriptionID = r.Subscription.SubscriptionID
		}
	case models.RedemptionCoupon:
		sess.Selection.CouponCode = r.Code
	}
}

// clearEntitlement removes the active redemption without destroying the
// visitor's own input. A prefilled field reverts only while its current value
// still matches what the redemption filled in; edited fields survive.
func clearEntitlement(sess *models.WizardSession) {
	for f, v := range sess.Prefilled {
		if sess.Identity.Field(f) == v {
			sess.Identity.SetField(f, "")
		}
	}
	sess.Prefilled = nil
	sess.Redemption = nil

	sess.Selection.Source = models.SourceNewPurchase
	sess.Selection.RedemptionCode = ""
	sess.Selection.GiftVoucherID = ""
	sess.Selection.SubscriptionID = ""
	sess.Selection.CouponCode = ""
}
