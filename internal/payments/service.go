package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

// IntentView is returned to the client after creating a payment intent.
type IntentView struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// ConfirmResult reports the order state after a synchronous confirmation.
type ConfirmResult struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}

// Service handles the synchronous half of payment reconciliation.
type Service interface {
	CreateIntent(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*IntentView, error)
	Confirm(ctx context.Context, actor policy.Actor, intentID string) (*ConfirmResult, error)
}

type service struct {
	orders   orders.Repository
	gateway  StripePaymentClient
	currency string
}

// NewService builds the payment service with the required dependencies.
func NewService(orderRepo orders.Repository, gateway StripePaymentClient) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("stripe payment client required")
	}
	return &service{
		orders:   orderRepo,
		gateway:  gateway,
		currency: "usd",
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*IntentView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if err := policy.Require(actor, policy.ActionPayOrder, order.UserID); err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be paid")
	}
	if order.PaymentMethod != enums.PaymentMethodStripe {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order does not use the stripe payment method")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(order.TotalPriceCents),
		Currency: stripe.String(s.currency),
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
		},
	}
	intent, err := s.gateway.CreateIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.orders.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent reference")
	}

	return &IntentView{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountCents:  order.TotalPriceCents,
		Currency:     s.currency,
	}, nil
}

// Confirm fetches the authoritative intent status from the gateway and marks
// the matching order paid. Racing with the webhook is safe because both sides
// write the same sticky value.
func (s *service) Confirm(ctx context.Context, actor policy.Actor, intentID string) (*ConfirmResult, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve payment intent")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodePaymentIncomplete, "payment has not succeeded").
			WithDetails(map[string]any{"intent_status": string(intent.Status)})
	}

	marked, err := s.orders.MarkPaidByIntent(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !marked {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order matches payment intent")
	}

	order, err := s.orders.FindByPaymentIntentID(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return &ConfirmResult{
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
	}, nil
}
