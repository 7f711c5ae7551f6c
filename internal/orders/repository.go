package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitchlane/stitchlane-backend/internal/repo"
	"github.com/stitchlane/stitchlane-backend/pkg/db/models"
	"github.com/stitchlane/stitchlane-backend/pkg/enums"
	"github.com/stitchlane/stitchlane-backend/pkg/pagination"
)

// Repository exposes order persistence used by services and jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, stamps map[string]any) (bool, error)
	ForceComplete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	MarkPaidByIntent(ctx context.Context, intentID string) (bool, error)
	MarkFailedByIntent(ctx context.Context, intentID string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error)
	ListFiltered(ctx context.Context, filter ListFilter) ([]models.Order, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus, page pagination.Params) ([]models.Order, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds an order repository on the shared connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Preload("Product").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).First(&order, "payment_intent_id = ?", intentID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusIf performs a guarded transition. The WHERE clause on the
// expected status makes concurrent transitions lose cleanly instead of
// clobbering each other.
func (r *repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, stamps map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     next,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range stamps {
		updates[column] = value
	}

	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ForceComplete marks the order completed from any non-completed status.
// completed_at is stamped only on the first completion.
func (r *repository) ForceComplete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	res := r.DB(ctx).Exec(`
		UPDATE orders
		SET status = ?,
			completed_at = COALESCE(completed_at, ?),
			updated_at = ?
		WHERE id = ? AND status <> ?
	`, enums.OrderStatusCompleted, completedAt, time.Now().UTC(), id, enums.OrderStatusCompleted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"payment_intent_id": intentID,
			"updated_at":        time.Now().UTC(),
		}).Error
}

// MarkPaidByIntent flips payment_status to paid. Writing the same value twice
// is harmless, so the guard only needs to match the intent id.
func (r *repository) MarkPaidByIntent(ctx context.Context, intentID string) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("payment_intent_id = ?", intentID).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailedByIntent records a failed payment but never downgrades paid.
func (r *repository) MarkFailedByIntent(ctx context.Context, intentID string) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("payment_intent_id = ? AND payment_status <> ?", intentID, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).
		Preload("Product").
		Where("user_id = ?", userID)
	return r.listPage(ctx, query, page)
}

func (r *repository) ListFiltered(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	query := r.DB(ctx).Preload("Product")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return r.listPage(ctx, query, filter.Page)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus, page pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).
		Preload("Product").
		Where("status = ?", status)
	return r.listPage(ctx, query, page)
}

func (r *repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var items []models.Order
	err := r.DB(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) listPage(ctx context.Context, query *gorm.DB, page pagination.Params) ([]models.Order, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.Order
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(page.Limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
