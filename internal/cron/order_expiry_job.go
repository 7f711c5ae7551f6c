package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/stitchlane/stitchlane-backend/pkg/logger"
)

const (
	expiryBatchSize  = 100
	expiryMaxBatches = 50
)

// pendingExpirer is the slice of the order service the job needs.
type pendingExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time, batchSize int) (int, error)
}

// OrderExpiryJobParams configure the pending order expiry job.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders pendingExpirer
	TTL    time.Duration
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders pendingExpirer
	ttl    time.Duration
	now    func() time.Time
}

// NewOrderExpiryJob builds the job that cancels stale pending orders and
// returns their reserved stock.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending order ttl must be positive")
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    params.TTL,
		now:    time.Now,
	}, nil
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	var errs []error

	for batch := 0; batch < expiryMaxBatches; batch++ {
		expired, err := j.orders.ExpirePending(ctx, cutoff, expiryBatchSize)
		total += expired
		if err != nil {
			errs = append(errs, fmt.Errorf("expire pending batch: %w", err))
			break
		}
		if expired < expiryBatchSize {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": total})
	j.logg.Info(logCtx, "order expiry loop complete")
	return multierr.Combine(errs...)
}
