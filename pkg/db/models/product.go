package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/pkg/enums"
)

// Product is a catalog garment available for made-to-order production.
type Product struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string                `gorm:"column:name;not null"`
	Description          string                `gorm:"column:description;not null"`
	Category             enums.ProductCategory `gorm:"column:category;type:text;not null"`
	UnitPriceCents       int64                 `gorm:"column:unit_price_cents;not null"`
	AvailableQuantity    int                   `gorm:"column:available_quantity;not null;default:0"`
	MinimumOrderQuantity int                   `gorm:"column:minimum_order_quantity;not null;default:1"`
	Images               []string              `gorm:"column:images;type:jsonb;serializer:json"`
	PaymentOptions       []enums.PaymentMethod `gorm:"column:payment_options;type:jsonb;serializer:json"`
	ShowOnHome           bool                  `gorm:"column:show_on_home;not null;default:false"`
	Active               bool                  `gorm:"column:active;not null;default:true"`
	CreatedBy            uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsPaymentMethod reports whether the product accepts the given method.
func (p *Product) AllowsPaymentMethod(method enums.PaymentMethod) bool {
	for _, option := range p.PaymentOptions {
		if option == method {
			return true
		}
	}
	return false
}
