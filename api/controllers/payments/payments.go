package payments

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/api/middleware"
	"github.com/stitchlane/stitchlane-backend/api/responses"
	"github.com/stitchlane/stitchlane-backend/api/validators"
	internalpayments "github.com/stitchlane/stitchlane-backend/internal/payments"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/logger"
)

type createIntentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid4"`
}

// CreateIntent opens a Stripe payment intent for a pending order.
func CreateIntent(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuid.Parse(strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		view, err := svc.CreateIntent(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

// Confirm reconciles an order against the intent's authoritative status.
func Confirm(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload confirmRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), middleware.ActorFromContext(r.Context()), payload.PaymentIntentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
