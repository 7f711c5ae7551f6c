package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

type stubOrderRepo struct {
	order *models.Order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	panic("not implemented")
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrderRepo) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	if s.order == nil || s.order.PaymentIntentID == nil || *s.order.PaymentIntentID != intentID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrderRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, stamps map[string]any) (bool, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) ForceComplete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	if s.order == nil || s.order.ID != id {
		return gorm.ErrRecordNotFound
	}
	s.order.PaymentIntentID = &intentID
	return nil
}

func (s *stubOrderRepo) MarkPaidByIntent(ctx context.Context, intentID string) (bool, error) {
	if s.order == nil || s.order.PaymentIntentID == nil || *s.order.PaymentIntentID != intentID {
		return false, nil
	}
	s.order.PaymentStatus = enums.PaymentStatusPaid
	return true, nil
}

func (s *stubOrderRepo) MarkFailedByIntent(ctx context.Context, intentID string) (bool, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) ListFiltered(ctx context.Context, filter orders.ListFilter) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) ListByStatus(ctx context.Context, status enums.OrderStatus, page pagination.Params) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrderRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	panic("not implemented")
}

type stubGateway struct {
	created   *stripe.PaymentIntentParams
	intent    *stripe.PaymentIntent
	createErr error
	getErr    error
}

func (s *stubGateway) CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = params
	return s.intent, nil
}

func (s *stubGateway) GetIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.intent, nil
}

func pendingStripeOrder(owner uuid.UUID) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		UserID:          owner,
		Quantity:        10,
		UnitPriceCents:  4500,
		TotalPriceCents: 45000,
		PaymentMethod:   enums.PaymentMethodStripe,
		PaymentStatus:   enums.PaymentStatusPending,
		Status:          enums.OrderStatusPending,
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	return typed
}

func TestCreateIntentHappyPath(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	repo := &stubOrderRepo{order: order}
	gateway := &stubGateway{intent: &stripe.PaymentIntent{ID: "pi_123", ClientSecret: "secret_123"}}
	svc, err := NewService(repo, gateway)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	view, err := svc.CreateIntent(context.Background(), actor, order.ID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	if view.IntentID != "pi_123" || view.ClientSecret != "secret_123" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.AmountCents != order.TotalPriceCents {
		t.Fatalf("expected amount %d, got %d", order.TotalPriceCents, view.AmountCents)
	}
	if gateway.created == nil || *gateway.created.Amount != order.TotalPriceCents {
		t.Fatalf("expected intent for %d cents", order.TotalPriceCents)
	}
	if gateway.created.Metadata["order_id"] != order.ID.String() {
		t.Fatal("expected order id metadata on intent")
	}
	if order.PaymentIntentID == nil || *order.PaymentIntentID != "pi_123" {
		t.Fatal("expected intent reference stored on order")
	}
}

func TestCreateIntentOnlyOwner(t *testing.T) {
	order := pendingStripeOrder(uuid.New())
	svc, err := NewService(&stubOrderRepo{order: order}, &stubGateway{intent: &stripe.PaymentIntent{ID: "pi"}})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: uuid.New(), Role: enums.MemberRoleUser}
	_, err = svc.CreateIntent(context.Background(), actor, order.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateIntentRejectsNonPendingOrder(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	order.Status = enums.OrderStatusApproved
	svc, err := NewService(&stubOrderRepo{order: order}, &stubGateway{intent: &stripe.PaymentIntent{ID: "pi"}})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	_, err = svc.CreateIntent(context.Background(), actor, order.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateIntentRejectsCashOrders(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	order.PaymentMethod = enums.PaymentMethodCashOnDelivery
	svc, err := NewService(&stubOrderRepo{order: order}, &stubGateway{intent: &stripe.PaymentIntent{ID: "pi"}})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	_, err = svc.CreateIntent(context.Background(), actor, order.ID)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	svc, err := NewService(&stubOrderRepo{order: order}, &stubGateway{createErr: errors.New("stripe down")})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	_, err = svc.CreateIntent(context.Background(), actor, order.ID)
	expectCode(t, err, pkgerrors.CodeDependency)
}

func TestConfirmRequiresSucceededIntent(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	intentID := "pi_waiting"
	order.PaymentIntentID = &intentID
	gateway := &stubGateway{intent: &stripe.PaymentIntent{ID: intentID, Status: stripe.PaymentIntentStatusRequiresPaymentMethod}}
	svc, err := NewService(&stubOrderRepo{order: order}, gateway)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	_, err = svc.Confirm(context.Background(), actor, intentID)
	typed := expectCode(t, err, pkgerrors.CodePaymentIncomplete)
	details, ok := typed.Details().(map[string]any)
	if !ok || details["intent_status"] != string(stripe.PaymentIntentStatusRequiresPaymentMethod) {
		t.Fatalf("expected intent_status detail, got %v", typed.Details())
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatal("expected payment status unchanged")
	}
}

func TestConfirmMarksOrderPaid(t *testing.T) {
	owner := uuid.New()
	order := pendingStripeOrder(owner)
	intentID := "pi_done"
	order.PaymentIntentID = &intentID
	gateway := &stubGateway{intent: &stripe.PaymentIntent{ID: intentID, Status: stripe.PaymentIntentStatusSucceeded}}
	svc, err := NewService(&stubOrderRepo{order: order}, gateway)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: owner, Role: enums.MemberRoleUser}
	result, err := svc.Confirm(context.Background(), actor, intentID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.OrderID != order.ID {
		t.Fatalf("expected order %s, got %s", order.ID, result.OrderID)
	}
	if result.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", result.PaymentStatus)
	}
}

func TestConfirmUnknownIntent(t *testing.T) {
	gateway := &stubGateway{intent: &stripe.PaymentIntent{ID: "pi_orphan", Status: stripe.PaymentIntentStatusSucceeded}}
	svc, err := NewService(&stubOrderRepo{}, gateway)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	actor := policy.Actor{UserID: uuid.New(), Role: enums.MemberRoleUser}
	_, err = svc.Confirm(context.Background(), actor, "pi_orphan")
	expectCode(t, err, pkgerrors.CodeNotFound)
}
