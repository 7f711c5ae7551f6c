package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/stitchlane/stitchlane-backend/internal/orders"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

// Service applies verified Stripe events to order payment state.
type Service struct {
	orders orders.Repository
}

func NewService(orderRepo orders.Repository) (*Service, error) {
	if orderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	return &Service{orders: orderRepo}, nil
}

// HandleEvent routes a signature-verified event. Unknown kinds are
// acknowledged without effect.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.applySucceeded(ctx, intent.ID)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.applyFailed(ctx, intent.ID)
	default:
		return nil
	}
}

func (s *Service) applySucceeded(ctx context.Context, intentID string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	marked, err := s.orders.MarkPaidByIntent(ctx, intentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !marked {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no order matches payment intent")
	}
	return nil
}

// applyFailed records the failure but leaves already-paid orders untouched.
func (s *Service) applyFailed(ctx context.Context, intentID string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	if _, err := s.orders.MarkFailedByIntent(ctx, intentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
	}
	return nil
}

func decodeIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &intent, nil
}
