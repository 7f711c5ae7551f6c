package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/pkg/enums"
)

// Order is a buyer's production order for a single catalog product.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID       uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity        int                 `gorm:"column:quantity;not null"`
	UnitPriceCents  int64               `gorm:"column:unit_price_cents;not null"`
	TotalPriceCents int64               `gorm:"column:total_price_cents;not null"`
	FirstName       string              `gorm:"column:first_name;not null"`
	LastName        string              `gorm:"column:last_name;not null"`
	Email           string              `gorm:"column:email;not null"`
	ContactNumber   string              `gorm:"column:contact_number;not null"`
	DeliveryAddress string              `gorm:"column:delivery_address;not null"`
	AdditionalNotes *string             `gorm:"column:additional_notes"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	ApprovedAt      *time.Time          `gorm:"column:approved_at"`
	RejectedAt      *time.Time          `gorm:"column:rejected_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
	CompletedAt     *time.Time          `gorm:"column:completed_at"`
	Product         *Product            `gorm:"foreignKey:ProductID"`
	TrackingEvents  []TrackingEvent     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeSave keeps the stored total consistent with quantity and unit price.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	o.TotalPriceCents = o.UnitPriceCents * int64(o.Quantity)
	return nil
}
