package booking

import (
	"context"
	"fmt"

	"ms-flights/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// StripeProvider charges orders through Stripe payment intents.
type StripeProvider struct {
	Currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	stripe.Key = secretKey
	if currency == "" {
		currency = "usd"
	}
	return &StripeProvider{Currency: currency}
}

func (p *StripeProvider) CreatePayment(ctx context.Context, order models.Order) (string, error) {
	// Stripe amounts are in the currency's smallest unit.
	amountInCents := int64(order.Price.TotalPrice * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.OrderID)
	params.AddMetadata("order_number", order.OrderNumber)

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}
	return intent.ID, nil
}
