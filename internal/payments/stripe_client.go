package payments

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/stitchlane/stitchlane-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations required by the payment service.
type StripePaymentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeClientWrapper struct {
	timeout time.Duration
}

// NewStripeClient wraps the provided Stripe client so the payment service can be tested.
// Calls are bounded by the supplied request timeout.
func NewStripeClient(api *pkgstripe.Client, timeout time.Duration) StripePaymentClient {
	if api == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &stripeClientWrapper{timeout: timeout}
}

func (w *stripeClientWrapper) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripeClientWrapper) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}
