package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRelease marks that an order's reserved stock was returned.
// The primary key on order_id guarantees at most one release per order.
type InventoryRelease struct {
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	Reason     string    `gorm:"column:reason;not null"`
	ReleasedAt time.Time `gorm:"column:released_at;autoCreateTime"`
}
