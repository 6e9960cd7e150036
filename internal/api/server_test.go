package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
)

type mockDB struct {
	healthy bool
}

func (m *mockDB) Pool() interface{} { return nil }

func (m *mockDB) Health(ctx context.Context) error {
	if !m.healthy {
		return errors.New("database unreachable")
	}
	return nil
}

func (m *mockDB) Close() {}

type mockTenantRepo struct {
	tenant.Repository
}

type mockJobRepo struct {
	syncjob.Repository
}

type mockScheduler struct {
	ready bool
}

func (m *mockScheduler) TriggerSync(ctx context.Context, t *tenant.Tenant, category syncjob.LoanCategory, force bool) (*uuid.UUID, error) {
	id := uuid.New()
	return &id, nil
}

func (m *mockScheduler) IsReady() bool { return m.ready }

func TestHealthEndpoint(t *testing.T) {
	srv := &Server{logger: zap.NewNop()}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.handleHealth(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 but got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if status, ok := body["status"].(string); !ok || status != "ok" {
		t.Errorf("expected status 'ok' but got %v", body["status"])
	}
}

func TestReadyEndpoint_DatabaseHealthy(t *testing.T) {
	srv := &Server{logger: zap.NewNop(), provider: &mockDB{healthy: true}}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	srv.handleReady(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestReadyEndpoint_DatabaseUnhealthy(t *testing.T) {
	srv := &Server{logger: zap.NewNop(), provider: &mockDB{healthy: false}}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	srv.handleReady(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestReadyEndpoint_SchedulerNotReady(t *testing.T) {
	srv := &Server{logger: zap.NewNop(), provider: &mockDB{healthy: true}, readiness: &mockScheduler{ready: false}}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	srv.handleReady(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestServerCreation(t *testing.T) {
	cfg := &config.HTTPConfig{
		Host:            "localhost",
		Port:            0,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}

	srv := New(cfg, &mockDB{healthy: true}, &mockTenantRepo{}, &mockJobRepo{}, &mockScheduler{ready: true}, zap.NewNop())
	if srv == nil {
		t.Fatal("expected non-nil server")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestGracefulShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping shutdown test in short mode")
	}

	cfg := &config.HTTPConfig{
		Host:            "localhost",
		Port:            0,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}

	srv := New(cfg, &mockDB{healthy: true}, &mockTenantRepo{}, &mockJobRepo{}, &mockScheduler{ready: true}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
}
