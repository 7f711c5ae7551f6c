package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stitchlane/stitchlane-backend/pkg/logger"
)

type fakeExpirer struct {
	batches []int
	err     error
	calls   int
	cutoffs []time.Time
}

func (f *fakeExpirer) ExpirePending(ctx context.Context, cutoff time.Time, batchSize int) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	call := f.calls
	f.calls++
	if f.err != nil && call == len(f.batches) {
		return 0, f.err
	}
	if call >= len(f.batches) {
		return 0, nil
	}
	return f.batches[call], nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newExpiryJob(t *testing.T, expirer *fakeExpirer, ttl time.Duration) *orderExpiryJob {
	t.Helper()
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: testLogger(),
		Orders: expirer,
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("setup job: %v", err)
	}
	return job.(*orderExpiryJob)
}

func TestOrderExpiryJobStopsOnShortBatch(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{expiryBatchSize, expiryBatchSize, 3}}
	job := newExpiryJob(t, expirer, time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if expirer.calls != 3 {
		t.Fatalf("expected 3 batches, got %d", expirer.calls)
	}
}

func TestOrderExpiryJobCutoffUsesTTL(t *testing.T) {
	expirer := &fakeExpirer{batches: []int{0}}
	job := newExpiryJob(t, expirer, 2*time.Hour)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(expirer.cutoffs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(expirer.cutoffs))
	}
	want := fixed.Add(-2 * time.Hour)
	if !expirer.cutoffs[0].Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoffs[0])
	}
}

func TestOrderExpiryJobSurfacesBatchError(t *testing.T) {
	boom := errors.New("db gone")
	expirer := &fakeExpirer{batches: []int{expiryBatchSize}, err: boom}
	job := newExpiryJob(t, expirer, time.Hour)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped batch error, got %v", err)
	}
	if expirer.calls != 2 {
		t.Fatalf("expected loop to stop after failing batch, got %d calls", expirer.calls)
	}
}
