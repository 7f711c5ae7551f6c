package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/orders"
	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddInput carries a new production checkpoint.
type AddInput struct {
	Actor                   policy.Actor
	OrderID                 uuid.UUID
	Status                  enums.TrackingStatus
	Location                string
	Notes                   *string
	Images                  []string
	EstimatedCompletionDate *time.Time
}

// UpdateInput corrects an existing checkpoint.
type UpdateInput struct {
	Actor                   policy.Actor
	TrackingID              uuid.UUID
	Status                  *enums.TrackingStatus
	Location                *string
	Notes                   *string
	Images                  []string
	EstimatedCompletionDate *time.Time
}

// Service records and manages production tracking checkpoints.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.TrackingEvent, error)
	ListByOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID) ([]models.TrackingEvent, error)
	Update(ctx context.Context, input UpdateInput) (*models.TrackingEvent, error)
	Delete(ctx context.Context, actor policy.Actor, trackingID uuid.UUID) error
}

type service struct {
	repo   Repository
	orders orders.Repository
	tx     txRunner
}

// NewService builds a tracking service with the required dependencies.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tracking repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, orders: orderRepo, tx: tx}, nil
}

// Add records a checkpoint. A Delivered checkpoint completes the order in the
// same transaction, bypassing normal transition preconditions.
func (s *service) Add(ctx context.Context, input AddInput) (*models.TrackingEvent, error) {
	if err := policy.Require(input.Actor, policy.ActionRecordTracking, uuid.Nil); err != nil {
		return nil, err
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking status")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location required")
	}

	var event *models.TrackingEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		event = &models.TrackingEvent{
			OrderID:                 order.ID,
			Status:                  input.Status,
			Location:                strings.TrimSpace(input.Location),
			Notes:                   input.Notes,
			Images:                  input.Images,
			EstimatedCompletionDate: input.EstimatedCompletionDate,
			CreatedBy:               input.Actor.UserID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking event")
		}

		if input.Status == enums.TrackingStatusDelivered {
			if _, err := orderRepo.ForceComplete(ctx, order.ID, time.Now().UTC()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete delivered order")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) ListByOrder(ctx context.Context, actor policy.Actor, orderID uuid.UUID) ([]models.TrackingEvent, error) {
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
	if err := policy.Require(actor, policy.ActionViewOrder, order.UserID); err != nil {
		return nil, err
	}

	events, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracking events")
	}
	return events, nil
}

// Update is the explicit correction path. Correcting a checkpoint to
// Delivered has the same completion side effect as adding one.
func (s *service) Update(ctx context.Context, input UpdateInput) (*models.TrackingEvent, error) {
	if err := policy.Require(input.Actor, policy.ActionEditTracking, uuid.Nil); err != nil {
		return nil, err
	}
	if input.TrackingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid tracking status")
	}
	if input.Location != nil && strings.TrimSpace(*input.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location cannot be empty")
	}

	var event *models.TrackingEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		found, err := txRepo.FindByID(ctx, input.TrackingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "tracking event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking event")
		}

		if input.Status != nil {
			found.Status = *input.Status
		}
		if input.Location != nil {
			found.Location = strings.TrimSpace(*input.Location)
		}
		if input.Notes != nil {
			found.Notes = input.Notes
		}
		if input.Images != nil {
			found.Images = input.Images
		}
		if input.EstimatedCompletionDate != nil {
			found.EstimatedCompletionDate = input.EstimatedCompletionDate
		}

		if err := txRepo.Update(ctx, found); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking event")
		}

		if found.Status == enums.TrackingStatusDelivered {
			if _, err := s.orders.WithTx(tx).ForceComplete(ctx, found.OrderID, time.Now().UTC()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete delivered order")
			}
		}
		event = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) Delete(ctx context.Context, actor policy.Actor, trackingID uuid.UUID) error {
	if err := policy.Require(actor, policy.ActionEditTracking, uuid.Nil); err != nil {
		return err
	}
	if trackingID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking id required")
	}

	deleted, err := s.repo.Delete(ctx, trackingID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tracking event")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "tracking event not found")
	}
	return nil
}
