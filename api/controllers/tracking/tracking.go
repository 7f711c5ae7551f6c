package tracking

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/api/middleware"
	"github.com/stitchlane/stitchlane-backend/api/responses"
	"github.com/stitchlane/stitchlane-backend/api/validators"
	internaltracking "github.com/stitchlane/stitchlane-backend/internal/tracking"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
	"github.com/stitchlane/stitchlane-backend/pkg/logger"
)

type addRequest struct {
	OrderID                 string   `json:"order_id" validate:"required,uuid4"`
	Status                  string   `json:"status" validate:"required"`
	Location                string   `json:"location" validate:"required,max=200"`
	Notes                   *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Images                  []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	EstimatedCompletionDate *string  `json:"estimated_completion_date,omitempty"`
}

// Add records a production checkpoint on an order.
func Add(svc internaltracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		var payload addRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		status, err := enums.ParseTrackingStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tracking status"))
			return
		}
		estimated, err := parseOptionalDate(payload.EstimatedCompletionDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Add(r.Context(), internaltracking.AddInput{
			Actor:                   middleware.ActorFromContext(r.Context()),
			OrderID:                 orderID,
			Status:                  status,
			Location:                payload.Location,
			Notes:                   payload.Notes,
			Images:                  payload.Images,
			EstimatedCompletionDate: estimated,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// ListByOrder returns the full checkpoint history for one order.
func ListByOrder(svc internaltracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		orderID, err := parseID(r, "orderId", "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListByOrder(r.Context(), middleware.ActorFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

type updateRequest struct {
	Status                  *string  `json:"status,omitempty"`
	Location                *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Notes                   *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Images                  []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	EstimatedCompletionDate *string  `json:"estimated_completion_date,omitempty"`
}

// Update corrects an existing checkpoint.
func Update(svc internaltracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		trackingID, err := parseID(r, "trackingId", "tracking id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internaltracking.UpdateInput{
			Actor:      middleware.ActorFromContext(r.Context()),
			TrackingID: trackingID,
			Location:   payload.Location,
			Notes:      payload.Notes,
			Images:     payload.Images,
		}
		if payload.Status != nil {
			status, err := enums.ParseTrackingStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tracking status"))
				return
			}
			input.Status = &status
		}
		estimated, err := parseOptionalDate(payload.EstimatedCompletionDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.EstimatedCompletionDate = estimated

		event, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, event)
	}
}

// Delete removes a checkpoint recorded in error.
func Delete(svc internaltracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		trackingID, err := parseID(r, "trackingId", "tracking id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), trackingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func parseID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid estimated_completion_date")
		}
	}
	return &t, nil
}
