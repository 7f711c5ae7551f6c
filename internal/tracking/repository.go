package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/repo"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
)

// Repository persists production tracking events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.TrackingEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error)
	Update(ctx context.Context, event *models.TrackingEvent) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a tracking repository on the shared connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, event *models.TrackingEvent) error {
	return r.DB(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	var event models.TrackingEvent
	if err := r.DB(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Update(ctx context.Context, event *models.TrackingEvent) error {
	return r.DB(ctx).Save(event).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Delete(&models.TrackingEvent{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
