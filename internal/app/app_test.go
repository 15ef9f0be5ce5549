package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	healthcheck "github.com/vladislavdragonenkov/game-orders/internal/health"
)

func TestNewDependencies_MemoryStorage(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer deps.Close()

	if deps.Repo == nil {
		t.Fatal("expected repository to be initialized")
	}
	if deps.Store != nil {
		t.Fatal("expected no postgres store with empty dsn")
	}
	if deps.Producer != nil {
		t.Fatal("expected no kafka producer with empty brokers")
	}
	if deps.EventPublisher() != nil {
		t.Fatal("expected nil event publisher interface when producer is absent")
	}
	if deps.Metrics == nil {
		t.Fatal("expected metrics to be initialized")
	}
}

func TestBuildMetricsMux_Probes(t *testing.T) {
	mux := buildMetricsMux(healthcheck.NewHandler("test"))

	for _, path := range []string{"/metrics", "/healthz", "/livez", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on %s, got %d", path, rec.Code)
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context deadline error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after context cancellation")
	}
}
