package stripewebhook

import (
	"context"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	keys map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]string{}}
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardSuppressesReplays(t *testing.T) {
	store := newFakeIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe-event")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	duplicate, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if duplicate {
		t.Fatal("first delivery should not be a duplicate")
	}

	duplicate, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !duplicate {
		t.Fatal("replay should be flagged as duplicate")
	}
}

func TestIdempotencyGuardDeleteAllowsRedelivery(t *testing.T) {
	store := newFakeIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe-event")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}

	if _, err := guard.CheckAndMark(context.Background(), "evt_retry"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := guard.Delete(context.Background(), "evt_retry"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	duplicate, err := guard.CheckAndMark(context.Background(), "evt_retry")
	if err != nil {
		t.Fatalf("re-check: %v", err)
	}
	if duplicate {
		t.Fatal("expected redelivery after delete")
	}
}

func TestIdempotencyGuardRequiresEventID(t *testing.T) {
	guard, err := NewIdempotencyGuard(newFakeIdempotencyStore(), time.Hour, "stripe-event")
	if err != nil {
		t.Fatalf("setup guard: %v", err)
	}
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
}
