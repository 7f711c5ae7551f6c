package orders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/api/middleware"
	"github.com/stitchlane/stitchlane-backend/api/responses"
	"github.com/stitchlane/stitchlane-backend/api/validators"
	internalorders "github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/logger"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

type createOrderRequest struct {
	ProductID       string  `json:"product_id" validate:"required,uuid4"`
	Quantity        int     `json:"quantity" validate:"required,min=1"`
	FirstName       string  `json:"first_name" validate:"required,max=100"`
	LastName        string  `json:"last_name" validate:"required,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	ContactNumber   string  `json:"contact_number" validate:"required,max=32"`
	DeliveryAddress string  `json:"delivery_address" validate:"required,max=500"`
	AdditionalNotes *string `json:"additional_notes,omitempty" validate:"omitempty,max=1000"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cash_on_delivery stripe"`
}

// Create places an order for the authenticated buyer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		input := internalorders.CreateInput{
			Actor:           middleware.ActorFromContext(r.Context()),
			ProductID:       productID,
			Quantity:        payload.Quantity,
			FirstName:       strings.TrimSpace(payload.FirstName),
			LastName:        strings.TrimSpace(payload.LastName),
			Email:           strings.TrimSpace(payload.Email),
			ContactNumber:   strings.TrimSpace(payload.ContactNumber),
			DeliveryAddress: strings.TrimSpace(payload.DeliveryAddress),
			AdditionalNotes: payload.AdditionalNotes,
			PaymentMethod:   method,
		}

		view, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// Mine lists the authenticated buyer's own orders.
func Mine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMine(r.Context(), middleware.ActorFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// List returns the admin view of all orders with optional filters.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := internalorders.ListFilter{Page: params}

		status, err := parseOrderStatusParam(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Status = status

		createdAfter, err := parseDateParam(r.URL.Query().Get("created_after"), "created_after")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CreatedAfter = createdAfter

		createdBefore, err := parseDateParam(r.URL.Query().Get("created_before"), "created_before")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CreatedBefore = createdBefore

		page, err := svc.ListAll(r.Context(), middleware.ActorFromContext(r.Context()), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Pending lists the approval queue for managers and admins.
func Pending(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listQueue(svc, logg, internalorders.Service.ListPending)
}

// Approved lists approved orders awaiting production.
func Approved(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return listQueue(svc, logg, internalorders.Service.ListApproved)
}

// Detail returns one order after the service's ownership check.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Detail(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Approve moves a pending order to approved.
func Approve(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decide(svc, logg, internalorders.Service.Approve)
}

// Reject moves a pending order to rejected and returns its stock.
func Reject(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decide(svc, logg, internalorders.Service.Reject)
}

// Cancel lets the order owner cancel a pending order.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return decide(svc, logg, internalorders.Service.Cancel)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SetStatus applies an administrative status override.
func SetStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		view, err := svc.SetStatus(r.Context(), internalorders.SetStatusInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			OrderID:   orderID,
			NewStatus: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func decide(
	svc internalorders.Service,
	logg *logger.Logger,
	op func(internalorders.Service, context.Context, internalorders.DecisionInput) (*internalorders.OrderView, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := op(svc, r.Context(), internalorders.DecisionInput{
			Actor:   middleware.ActorFromContext(r.Context()),
			OrderID: orderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func listQueue(
	svc internalorders.Service,
	logg *logger.Logger,
	op func(internalorders.Service, context.Context, policy.Actor, pagination.Params) (*internalorders.Page, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := op(svc, r.Context(), middleware.ActorFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func parseOrderStatusParam(raw string) (*enums.OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid status %q", raw))
	}
	return &status, nil
}

func parseDateParam(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid %s", field))
		}
	}
	return &t, nil
}
