package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/inventory"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/internal/products"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order lifecycle operations and reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*OrderView, error)
	Approve(ctx context.Context, input DecisionInput) (*OrderView, error)
	Reject(ctx context.Context, input DecisionInput) (*OrderView, error)
	Cancel(ctx context.Context, input DecisionInput) (*OrderView, error)
	SetStatus(ctx context.Context, input SetStatusInput) (*OrderView, error)
	Detail(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderView, error)
	ListMine(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error)
	ListAll(ctx context.Context, actor policy.Actor, filter ListFilter) (*Page, error)
	ListPending(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error)
	ListApproved(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error)
	ExpirePending(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
}

type service struct {
	repo      Repository
	products  products.Repository
	inventory inventory.Ledger
	tx        txRunner
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, productRepo products.Repository, ledger inventory.Ledger, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		products:  productRepo,
		inventory: ledger,
		tx:        tx,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*OrderView, error) {
	if err := policy.Require(input.Actor, policy.ActionCreateOrder, input.Actor.UserID); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.products.WithTx(tx)
		product, err := productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.Active {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
		}
		if input.Quantity < product.MinimumOrderQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum order quantity").
				WithDetails(map[string]any{"minimum_order_quantity": product.MinimumOrderQuantity})
		}
		if input.Quantity > product.AvailableQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
				WithDetails(map[string]any{"available_quantity": product.AvailableQuantity})
		}
		if !product.AllowsPaymentMethod(input.PaymentMethod) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment method not accepted for product")
		}

		if err := s.inventory.Reserve(ctx, tx, product.ID, input.Quantity); err != nil {
			return err
		}

		order = &models.Order{
			UserID:          input.Actor.UserID,
			ProductID:       product.ID,
			Quantity:        input.Quantity,
			UnitPriceCents:  product.UnitPriceCents,
			FirstName:       input.FirstName,
			LastName:        input.LastName,
			Email:           input.Email,
			ContactNumber:   input.ContactNumber,
			DeliveryAddress: input.DeliveryAddress,
			AdditionalNotes: input.AdditionalNotes,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			Status:          enums.OrderStatusPending,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toView(order)
	return &view, nil
}

func (s *service) Approve(ctx context.Context, input DecisionInput) (*OrderView, error) {
	if err := policy.Require(input.Actor, policy.ActionApproveOrder, uuid.Nil); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.transition(ctx, input.OrderID, enums.OrderStatusPending, enums.OrderStatusApproved,
		map[string]any{"approved_at": now}, false, "")
}

func (s *service) Reject(ctx context.Context, input DecisionInput) (*OrderView, error) {
	if err := policy.Require(input.Actor, policy.ActionRejectOrder, uuid.Nil); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return s.transition(ctx, input.OrderID, enums.OrderStatusPending, enums.OrderStatusRejected,
		map[string]any{"rejected_at": now}, true, "rejected")
}

func (s *service) Cancel(ctx context.Context, input DecisionInput) (*OrderView, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(input.Actor, policy.ActionCancelOrder, order.UserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.transition(ctx, input.OrderID, enums.OrderStatusPending, enums.OrderStatusCancelled,
		map[string]any{"cancelled_at": now}, true, "cancelled")
}

func (s *service) SetStatus(ctx context.Context, input SetStatusInput) (*OrderView, error) {
	if err := policy.Require(input.Actor, policy.ActionOverrideStatus, uuid.Nil); err != nil {
		return nil, err
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state")
	}
	if order.Status == input.NewStatus {
		view := toView(order)
		return &view, nil
	}

	now := time.Now().UTC()
	stamps := map[string]any{}
	releaseReason := ""
	release := false
	switch input.NewStatus {
	case enums.OrderStatusApproved:
		if order.ApprovedAt == nil {
			stamps["approved_at"] = now
		}
	case enums.OrderStatusRejected:
		stamps["rejected_at"] = now
		release = true
		releaseReason = "rejected"
	case enums.OrderStatusCancelled:
		stamps["cancelled_at"] = now
		release = true
		releaseReason = "cancelled"
	case enums.OrderStatusCompleted:
		if order.CompletedAt == nil {
			stamps["completed_at"] = now
		}
	}

	return s.transition(ctx, input.OrderID, order.Status, input.NewStatus, stamps, release, releaseReason)
}

// transition runs a guarded status update plus optional stock release in one
// transaction. A zero-row update is disambiguated by re-reading the order.
func (s *service) transition(
	ctx context.Context,
	orderID uuid.UUID,
	expected, next enums.OrderStatus,
	stamps map[string]any,
	release bool,
	releaseReason string,
) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		ok, err := txRepo.UpdateStatusIf(ctx, orderID, expected, next, stamps)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			current, err := txRepo.FindByID(ctx, orderID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed from current status").
				WithDetails(map[string]any{"current_status": current.Status})
		}

		updated, err = txRepo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}

		if release {
			if err := s.inventory.Release(ctx, tx, updated.ID, updated.ProductID, updated.Quantity, releaseReason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view := toView(updated)
	return &view, nil
}

func (s *service) Detail(ctx context.Context, actor policy.Actor, orderID uuid.UUID) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(actor, policy.ActionViewOrder, order.UserID); err != nil {
		return nil, err
	}
	view := toView(order)
	return &view, nil
}

func (s *service) ListMine(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListByUser(ctx, actor.UserID, page)
	if err != nil {
		return nil, wrapListErr(err)
	}
	return buildPage(items, page.Limit), nil
}

func (s *service) ListAll(ctx context.Context, actor policy.Actor, filter ListFilter) (*Page, error) {
	if err := policy.Require(actor, policy.ActionListAllOrders, uuid.Nil); err != nil {
		return nil, err
	}
	items, err := s.repo.ListFiltered(ctx, filter)
	if err != nil {
		return nil, wrapListErr(err)
	}
	return buildPage(items, filter.Page.Limit), nil
}

func (s *service) ListPending(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error) {
	return s.listQueue(ctx, actor, enums.OrderStatusPending, page)
}

func (s *service) ListApproved(ctx context.Context, actor policy.Actor, page pagination.Params) (*Page, error) {
	return s.listQueue(ctx, actor, enums.OrderStatusApproved, page)
}

func (s *service) listQueue(ctx context.Context, actor policy.Actor, status enums.OrderStatus, page pagination.Params) (*Page, error) {
	if err := policy.Require(actor, policy.ActionListAllOrders, uuid.Nil); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByStatus(ctx, status, page)
	if err != nil {
		return nil, wrapListErr(err)
	}
	return buildPage(items, page.Limit), nil
}

// ExpirePending cancels stale pending orders and returns their stock. Each
// order is handled in its own transaction so one failure does not poison the
// batch.
func (s *service) ExpirePending(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	stale, err := s.repo.ListPendingBefore(ctx, cutoff, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stale pending orders")
	}

	expired := 0
	now := time.Now().UTC()
	for _, order := range stale {
		_, err := s.transition(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled,
			map[string]any{"cancelled_at": now}, true, "expired")
		if err != nil {
			// a racing transition already moved the order on
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func wrapListErr(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
}

func buildPage(items []models.Order, limit int) *Page {
	normalized := pagination.NormalizeLimit(limit)
	page := &Page{Orders: make([]OrderView, 0, len(items))}

	hasMore := len(items) > normalized
	if hasMore {
		items = items[:normalized]
	}
	for i := range items {
		page.Orders = append(page.Orders, toView(&items[i]))
	}
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}

func toView(order *models.Order) OrderView {
	view := OrderView{
		ID:              order.ID,
		UserID:          order.UserID,
		ProductID:       order.ProductID,
		Quantity:        order.Quantity,
		UnitPriceCents:  order.UnitPriceCents,
		TotalPriceCents: order.TotalPriceCents,
		FirstName:       order.FirstName,
		LastName:        order.LastName,
		Email:           order.Email,
		ContactNumber:   order.ContactNumber,
		DeliveryAddress: order.DeliveryAddress,
		AdditionalNotes: order.AdditionalNotes,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		Status:          order.Status,
		ApprovedAt:      order.ApprovedAt,
		RejectedAt:      order.RejectedAt,
		CancelledAt:     order.CancelledAt,
		CompletedAt:     order.CompletedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.Product != nil {
		view.ProductName = order.Product.Name
	}
	return view
}
