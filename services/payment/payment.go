package payment

import (
	"context"
	"fmt"

	"masu/models"
	"masu/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// StripePaymentGateway creates payment intents for outstanding amounts.
// The global stripe.Key is set at startup from configuration.
type StripePaymentGateway struct{}

func NewStripePaymentGateway() *StripePaymentGateway {
	return &StripePaymentGateway{}
}

// CreateIntent opens a payment intent for the amount, in the minor unit of
// the given currency.
func (g *StripePaymentGateway) CreateIntent(ctx context.Context, amount float64, currency, description string, metadata map[string]string) (*models.PaymentIntentRef, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(int64(amount * 100)),
		Currency:    stripe.String(currency),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	utils.GetLogger().Info("Payment intent created",
		zap.String("intentId", intent.ID),
		zap.Float64("amount", amount))
	return &models.PaymentIntentRef{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}
