package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_orders_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"'pending', 'approved', 'rejected', 'in_production', 'completed', 'cancelled'",
		"'cash_on_delivery', 'stripe'",
		"'pending', 'paid', 'failed', 'refunded'",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_intent_id",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInventoryReleasesMigrationKeysOnOrder(t *testing.T) {
	content := readMigration(t, "*_create_inventory_releases_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_releases",
		"order_id UUID PRIMARY KEY",
		"quantity INTEGER NOT NULL CHECK (quantity > 0)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTrackingMigrationCoversStageVocabulary(t *testing.T) {
	content := readMigration(t, "*_create_tracking_events_table.sql")

	stages := []string{
		"'Order Placed'", "'Cutting Started'", "'Sewing Completed'",
		"'QC Checked'", "'Out for Delivery'", "'Delivered'",
	}
	for _, stage := range stages {
		if !strings.Contains(content, stage) {
			t.Errorf("missing tracking stage %s", stage)
		}
	}
}
