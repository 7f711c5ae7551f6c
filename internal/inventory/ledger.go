package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/stitchlane/stitchlane-backend/pkg/errors"
)

// Ledger mutates product stock counters inside a caller-provided transaction.
// Reservations decrement available stock atomically; releases return stock at
// most once per order.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID, qty int, reason string) error
}

type ledger struct{}

// NewLedger returns the default stock ledger.
func NewLedger() Ledger {
	return ledger{}
}

// Reserve decrements available stock if enough remains. The guard in the WHERE
// clause makes concurrent reservations race-safe without row locks.
func (ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET available_quantity = available_quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active AND available_quantity >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for product")
	}
	return nil
}

// Release returns reserved stock to the product. The marker insert keyed by
// order_id makes repeated releases for the same order a no-op.
func (ledger) Release(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID, qty int, reason string) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	marker := tx.WithContext(ctx).Exec(`
		INSERT INTO inventory_releases (order_id, product_id, quantity, reason, released_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID, productID, qty, reason)
	if marker.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, marker.Error, "record stock release")
	}
	if marker.RowsAffected == 0 {
		// already released for this order
		return nil
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET available_quantity = available_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found for stock release")
	}
	return nil
}
