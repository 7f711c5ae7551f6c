package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/stitchlane/stitchlane-backend/internal/policy"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

// CreateInput captures everything needed to place an order.
type CreateInput struct {
	Actor           policy.Actor
	ProductID       uuid.UUID
	Quantity        int
	FirstName       string
	LastName        string
	Email           string
	ContactNumber   string
	DeliveryAddress string
	AdditionalNotes *string
	PaymentMethod   enums.PaymentMethod
}

// DecisionInput identifies the order a manager or admin is deciding.
type DecisionInput struct {
	Actor   policy.Actor
	OrderID uuid.UUID
}

// SetStatusInput carries an administrative status override.
type SetStatusInput struct {
	Actor     policy.Actor
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status        *enums.OrderStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          pagination.Params
}

// Page is one page of orders plus the cursor for the next one.
type Page struct {
	Orders     []OrderView `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// OrderView is the API shape of an order.
type OrderView struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	ProductID       uuid.UUID           `json:"product_id"`
	ProductName     string              `json:"product_name,omitempty"`
	Quantity        int                 `json:"quantity"`
	UnitPriceCents  int64               `json:"unit_price_cents"`
	TotalPriceCents int64               `json:"total_price_cents"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	Email           string              `json:"email"`
	ContactNumber   string              `json:"contact_number"`
	DeliveryAddress string              `json:"delivery_address"`
	AdditionalNotes *string             `json:"additional_notes,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	Status          enums.OrderStatus   `json:"status"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty"`
	RejectedAt      *time.Time          `json:"rejected_at,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}
