package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/pkg/enums"
)

// TrackingEvent is a production milestone recorded against an order.
type TrackingEvent struct {
	ID                      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                 uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Status                  enums.TrackingStatus `gorm:"column:status;type:text;not null"`
	Location                string               `gorm:"column:location;not null"`
	Notes                   *string              `gorm:"column:notes"`
	Images                  []string             `gorm:"column:images;type:jsonb;serializer:json"`
	EstimatedCompletionDate *time.Time           `gorm:"column:estimated_completion_date"`
	CreatedBy               uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt               time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
