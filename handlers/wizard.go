package handlers

import (
	"errors"
	"net/http"
	"time"

	"masu/config"
	"masu/models"
	"masu/services/wizard"

	"github.com/gin-gonic/gin"
)

// WizardHandler exposes the purchase wizard over HTTP. Each session gets its
// own controller and persister; the registry maps session ids to them.
type WizardHandler struct {
	Registry *wizard.Registry

	Catalog      wizard.CatalogService
	Pricing      wizard.PriceService
	Availability wizard.AvailabilityService
	Redemptions  wizard.RedemptionService
	Guests       *wizard.GuestIdentityManager
	Orders       wizard.OrderService
	Payments     wizard.PaymentGateway
	Notifier     wizard.Notifier
	Snapshots    wizard.SnapshotStore
	Reminders    wizard.ReminderScheduler
}

type startFlowInput struct {
	FlowKind  string `json:"flowKind"`
	ClientKey string `json:"clientKey" binding:"required"`
	Code      string `json:"code"`
}

// StartFlow opens a fresh wizard session. A deep-linked code is applied
// immediately; its rejection is reported without failing the start.
func (h *WizardHandler) StartFlow(c *gin.Context) {
	var input startFlowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	flow := models.FlowKind(input.FlowKind)
	if flow != models.FlowGiftVoucher {
		flow = models.FlowBooking
	}

	cfg := wizard.ControllerConfig{
		FlowKind:          flow,
		ClientKey:         input.ClientKey,
		MemberID:          c.GetString("memberID"),
		Catalog:           h.Catalog,
		Pricing:           h.Pricing,
		Availability:      h.Availability,
		Redemptions:       h.Redemptions,
		Guests:            h.Guests,
		Orders:            h.Orders,
		Payments:          h.Payments,
		Notifier:          h.Notifier,
		AvailabilityDelay: time.Duration(config.AppConfig.AvailabilityDebounceMs) * time.Millisecond,
		Persister: wizard.NewSessionPersister(h.Snapshots, h.Reminders,
			time.Duration(config.AppConfig.SnapshotDebounceMs)*time.Millisecond,
			time.Duration(config.AppConfig.ReminderDelayMinutes)*time.Minute),
	}

	ctrl, err := wizard.StartFlow(c.Request.Context(), cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session", "details": err.Error()})
		return
	}
	h.Registry.Put(ctrl)

	resp := gin.H{
		"session":     ctrl.Session(),
		"hasRecovery": ctrl.HasRecovery(),
	}
	if offer := ctrl.RecoveryOffer(); offer != nil {
		resp["recovery"] = offer
	}
	if input.Code != "" {
		if err := ctrl.ApplyRedemptionCode(c.Request.Context(), input.Code); err != nil {
			resp["codeError"] = describeError(err)
			resp["session"] = ctrl.Session()
		} else {
			resp["session"] = ctrl.Session()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession returns the live session state plus the current slot list.
func (h *WizardHandler) GetSession(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	resp := gin.H{"session": ctrl.Session()}
	if avail := ctrl.AvailabilityState(); avail != nil {
		resp["availability"] = avail
	}
	if err := ctrl.PriceError(); err != nil {
		resp["priceError"] = err.Error()
	}
	if id := ctrl.ConfirmationID(); id != "" {
		resp["confirmationId"] = id
	}
	c.JSON(http.StatusOK, resp)
}

// ListTreatments returns the bookable catalogue.
func (h *WizardHandler) ListTreatments(c *gin.Context) {
	treatments, err := h.Catalog.ListActiveTreatments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list treatments", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"treatments": treatments})
}

func (h *WizardHandler) SelectTreatment(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		TreatmentID string `json:"treatmentId" binding:"required"`
		DurationID  string `json:"durationId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.SelectTreatment(c.Request.Context(), input.TreatmentID, input.DurationID))
}

func (h *WizardHandler) SelectVoucher(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input models.VoucherPurchase
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.SelectVoucher(c.Request.Context(), input))
}

func (h *WizardHandler) SelectDate(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.SelectDate(input.Date))
}

func (h *WizardHandler) SelectTime(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.SelectTime(input.Time))
}

func (h *WizardHandler) SetGenderPreference(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		Preference string `json:"preference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.SetGenderPreference(input.Preference))
}

func (h *WizardHandler) UpdateIdentity(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input models.PartialIdentity
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.UpdateIdentity(input))
}

func (h *WizardHandler) UpdateAddress(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input models.PartialAddress
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.UpdateAddress(input))
}

func (h *WizardHandler) ApplyRedemption(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		Code           string `json:"code"`
		VoucherID      string `json:"voucherId"`
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	var err error
	switch {
	case input.Code != "":
		err = ctrl.ApplyRedemptionCode(c.Request.Context(), input.Code)
	case input.VoucherID != "":
		err = ctrl.ApplyVoucher(c.Request.Context(), input.VoucherID)
	case input.SubscriptionID != "":
		err = ctrl.ApplySubscription(c.Request.Context(), input.SubscriptionID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "code, voucherId or subscriptionId required"})
		return
	}
	h.respond(c, ctrl, err)
}

func (h *WizardHandler) ClearRedemption(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	h.respond(c, ctrl, ctrl.ClearRedemption())
}

func (h *WizardHandler) ApplyCoupon(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	h.respond(c, ctrl, ctrl.ApplyCoupon(c.Request.Context(), input.Code))
}

func (h *WizardHandler) Advance(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	h.respond(c, ctrl, ctrl.Advance(c.Request.Context()))
}

func (h *WizardHandler) Back(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	h.respond(c, ctrl, ctrl.Back())
}

func (h *WizardHandler) BeginPayment(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	ref, err := ctrl.BeginPayment(c.Request.Context())
	if err != nil {
		writeWizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentIntent": ref})
}

func (h *WizardHandler) CompletePayment(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	var input models.PaymentResult
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if err := ctrl.CompletePayment(c.Request.Context(), input); err != nil {
		writeWizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":        ctrl.Session(),
		"confirmationId": ctrl.ConfirmationID(),
	})
}

func (h *WizardHandler) Resume(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	h.respond(c, ctrl, ctrl.Resume(c.Request.Context()))
}

func (h *WizardHandler) StartFresh(c *gin.Context) {
	ctrl := h.controller(c)
	if ctrl == nil {
		return
	}
	ctrl.StartFresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"session": ctrl.Session()})
}

// Abandon drops the in-memory controller. The persisted snapshot stays, so
// the visitor can still be offered a resume later.
func (h *WizardHandler) Abandon(c *gin.Context) {
	sessionID := c.Param("sessionID")
	h.Registry.Remove(sessionID)
	c.JSON(http.StatusOK, gin.H{"status": "abandoned"})
}

// RecoverGuest verifies a guest handle secret and returns the guest record.
func (h *WizardHandler) RecoverGuest(c *gin.Context) {
	var input struct {
		ClientKey string `json:"clientKey" binding:"required"`
		Secret    string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	guest, err := h.Guests.Recover(c.Request.Context(), input.ClientKey, input.Secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recovery failed", "details": err.Error()})
		return
	}
	if guest == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unrecognized handle or secret"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"guest": guest})
}

func (h *WizardHandler) controller(c *gin.Context) *wizard.Controller {
	sessionID := c.Param("sessionID")
	ctrl := h.Registry.Get(sessionID)
	if ctrl == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
		return nil
	}
	return ctrl
}

func (h *WizardHandler) respond(c *gin.Context, ctrl *wizard.Controller, err error) {
	if err != nil {
		writeWizardError(c, err)
		return
	}
	resp := gin.H{"session": ctrl.Session()}
	if id := ctrl.ConfirmationID(); id != "" {
		resp["confirmationId"] = id
	}
	c.JSON(http.StatusOK, resp)
}

// writeWizardError maps the wizard's error taxonomy onto HTTP statuses.
func writeWizardError(c *gin.Context, err error) {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": ve.Message,
			"field": ve.Field,
			"kind":  "validation",
		})
		return
	}
	var ee *wizard.EntitlementError
	if errors.As(err, &ee) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  ee.Message,
			"reason": string(ee.Reason),
			"kind":   "entitlement",
		})
		return
	}
	var se *wizard.StateError
	if errors.As(err, &se) {
		c.JSON(http.StatusConflict, gin.H{"error": se.Message, "kind": "state"})
		return
	}
	var sub *wizard.SubmissionError
	if errors.As(err, &sub) {
		c.JSON(http.StatusBadGateway, gin.H{"error": sub.Error(), "kind": "submission"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func describeError(err error) gin.H {
	var ee *wizard.EntitlementError
	if errors.As(err, &ee) {
		return gin.H{"error": ee.Message, "reason": string(ee.Reason)}
	}
	return gin.H{"error": err.Error()}
}
