package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

type stubTrackingRepo struct {
	events map[uuid.UUID]*models.TrackingEvent
}

func newStubTrackingRepo() *stubTrackingRepo {
	return &stubTrackingRepo{events: map[uuid.UUID]*models.TrackingEvent{}}
}

func (s *stubTrackingRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTrackingRepo) Create(ctx context.Context, event *models.TrackingEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	s.events[event.ID] = event
	return nil
}

func (s *stubTrackingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	event, ok := s.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *stubTrackingRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	var out []models.TrackingEvent
	for _, event := range s.events {
		if event.OrderID == orderID {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (s *stubTrackingRepo) Update(ctx context.Context, event *models.TrackingEvent) error {
	if _, ok := s.events[event.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *event
	s.events[event.ID] = &copied
	return nil
}

func (s *stubTrackingRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	return true, nil
}

type stubOrdersRepo struct {
	order     *models.Order
	completed bool
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, stamps map[string]any) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ForceComplete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	if s.order == nil || s.order.ID != id {
		return false, nil
	}
	s.completed = true
	s.order.Status = enums.OrderStatusCompleted
	s.order.CompletedAt = &completedAt
	return true, nil
}

func (s *stubOrdersRepo) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	panic("not implemented")
}

func (s *stubOrdersRepo) MarkPaidByIntent(ctx context.Context, intentID string) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) MarkFailedByIntent(ctx context.Context, intentID string) (bool, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListFiltered(ctx context.Context, filter orders.ListFilter) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListByStatus(ctx context.Context, status enums.OrderStatus, page pagination.Params) ([]models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func manager() policy.Actor {
	return policy.Actor{UserID: uuid.New(), Role: enums.MemberRoleManager}
}

func buyer(id uuid.UUID) policy.Actor {
	return policy.Actor{UserID: id, Role: enums.MemberRoleUser}
}

func inProductionOrder(owner uuid.UUID) *models.Order {
	return &models.Order{
		ID:     uuid.New(),
		UserID: owner,
		Status: enums.OrderStatusInProduction,
	}
}

func setup(t *testing.T, order *models.Order) (Service, *stubTrackingRepo, *stubOrdersRepo) {
	t.Helper()
	trackingRepo := newStubTrackingRepo()
	ordersRepo := &stubOrdersRepo{order: order}
	svc, err := NewService(trackingRepo, ordersRepo, stubTxRunner{})
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}
	return svc, trackingRepo, ordersRepo
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestAddRequiresStaffRole(t *testing.T) {
	owner := uuid.New()
	svc, _, _ := setup(t, inProductionOrder(owner))

	_, err := svc.Add(context.Background(), AddInput{
		Actor:    buyer(owner),
		OrderID:  uuid.New(),
		Status:   enums.TrackingStatusCuttingStarted,
		Location: "Floor 2",
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestAddRecordsCheckpoint(t *testing.T) {
	order := inProductionOrder(uuid.New())
	svc, trackingRepo, ordersRepo := setup(t, order)

	actor := manager()
	notes := "first batch cut"
	event, err := svc.Add(context.Background(), AddInput{
		Actor:    actor,
		OrderID:  order.ID,
		Status:   enums.TrackingStatusCuttingStarted,
		Location: "  Floor 2  ",
		Notes:    &notes,
		Images:   []string{"https://cdn.example.com/cut.jpg"},
	})
	if err != nil {
		t.Fatalf("add checkpoint: %v", err)
	}

	if event.Location != "Floor 2" {
		t.Fatalf("expected trimmed location, got %q", event.Location)
	}
	if event.CreatedBy != actor.UserID {
		t.Fatal("expected actor recorded as author")
	}
	if _, ok := trackingRepo.events[event.ID]; !ok {
		t.Fatal("expected event persisted")
	}
	if ordersRepo.completed {
		t.Fatal("non-delivered checkpoint must not complete the order")
	}
}

func TestAddDeliveredCompletesOrder(t *testing.T) {
	order := inProductionOrder(uuid.New())
	svc, _, ordersRepo := setup(t, order)

	_, err := svc.Add(context.Background(), AddInput{
		Actor:    manager(),
		OrderID:  order.ID,
		Status:   enums.TrackingStatusDelivered,
		Location: "Customer site",
	})
	if err != nil {
		t.Fatalf("add checkpoint: %v", err)
	}
	if !ordersRepo.completed {
		t.Fatal("expected delivered checkpoint to complete the order")
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", order.Status)
	}
}

func TestAddUnknownOrder(t *testing.T) {
	svc, _, _ := setup(t, inProductionOrder(uuid.New()))

	_, err := svc.Add(context.Background(), AddInput{
		Actor:    manager(),
		OrderID:  uuid.New(),
		Status:   enums.TrackingStatusSewingStarted,
		Location: "Floor 3",
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestListByOrderOwnerOnly(t *testing.T) {
	owner := uuid.New()
	order := inProductionOrder(owner)
	svc, trackingRepo, _ := setup(t, order)
	trackingRepo.events[uuid.New()] = &models.TrackingEvent{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Status:   enums.TrackingStatusSewingStarted,
		Location: "Floor 3",
	}

	if _, err := svc.ListByOrder(context.Background(), buyer(uuid.New()), order.ID); err == nil {
		t.Fatal("expected forbidden for stranger")
	} else {
		expectCode(t, err, pkgerrors.CodeForbidden)
	}

	events, err := svc.ListByOrder(context.Background(), buyer(owner), order.ID)
	if err != nil {
		t.Fatalf("list as owner: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestUpdateToDeliveredCompletesOrder(t *testing.T) {
	order := inProductionOrder(uuid.New())
	svc, trackingRepo, ordersRepo := setup(t, order)
	eventID := uuid.New()
	trackingRepo.events[eventID] = &models.TrackingEvent{
		ID:       eventID,
		OrderID:  order.ID,
		Status:   enums.TrackingStatusQCChecked,
		Location: "QC bay",
	}

	delivered := enums.TrackingStatusDelivered
	updated, err := svc.Update(context.Background(), UpdateInput{
		Actor:      manager(),
		TrackingID: eventID,
		Status:     &delivered,
	})
	if err != nil {
		t.Fatalf("update checkpoint: %v", err)
	}
	if updated.Status != enums.TrackingStatusDelivered {
		t.Fatalf("expected delivered, got %s", updated.Status)
	}
	if updated.Location != "QC bay" {
		t.Fatal("expected untouched fields preserved")
	}
	if !ordersRepo.completed {
		t.Fatal("expected delivered correction to complete the order")
	}
}

func TestUpdateRejectsBlankLocation(t *testing.T) {
	svc, _, _ := setup(t, inProductionOrder(uuid.New()))

	blank := "   "
	_, err := svc.Update(context.Background(), UpdateInput{
		Actor:      manager(),
		TrackingID: uuid.New(),
		Location:   &blank,
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestDeleteUnknownCheckpoint(t *testing.T) {
	svc, _, _ := setup(t, inProductionOrder(uuid.New()))

	err := svc.Delete(context.Background(), manager(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteRemovesCheckpoint(t *testing.T) {
	order := inProductionOrder(uuid.New())
	svc, trackingRepo, _ := setup(t, order)
	eventID := uuid.New()
	trackingRepo.events[eventID] = &models.TrackingEvent{ID: eventID, OrderID: order.ID}

	if err := svc.Delete(context.Background(), manager(), eventID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := trackingRepo.events[eventID]; ok {
		t.Fatal("expected event removed")
	}
}
