package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// Интеграционные тесты требуют живой базы: DSN берётся из ORDERS_POSTGRES_TEST_DSN,
// при его отсутствии тесты пропускаются.
func openPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("ORDERS_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("ORDERS_POSTGRES_TEST_DSN is not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.MigrateUp(ctx); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	truncateOrderTables(t, store)

	return store
}

func truncateOrderTables(t *testing.T, store *Store) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := store.DB().ExecContext(ctx, `TRUNCATE order_item, "order" RESTART IDENTITY`); err != nil {
		t.Fatalf("truncate order tables: %v", err)
	}
}
