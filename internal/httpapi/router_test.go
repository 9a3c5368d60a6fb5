package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mentiond/mentiond/internal/config"
	"github.com/mentiond/mentiond/internal/heartbeat"
	"github.com/mentiond/mentiond/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, *store.Store, *heartbeat.Registry) {
	t.Helper()
	sqlStore, err := store.New(filepath.Join(t.TempDir(), "httpapi_test.sqlite"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })
	if err := sqlStore.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	registry := heartbeat.NewRegistry()
	handler := NewRouter(Dependencies{
		Config:    config.Config{Environment: "test", HeartbeatStaleSec: 900},
		Store:     sqlStore,
		Heartbeat: registry,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return handler, sqlStore, registry
}

func TestHealthAndReady(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, recorder.Code)
		}
	}
}

func TestStatusIncludesHeartbeat(t *testing.T) {
	handler, _, registry := newTestRouter(t)
	registry.Beat("scheduler", "run completed")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status returned %d", recorder.Code)
	}

	var payload struct {
		Environment string             `json:"environment"`
		Heartbeat   heartbeat.Snapshot `json:"heartbeat"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.Environment != "test" {
		t.Fatalf("unexpected environment: %s", payload.Environment)
	}
	if len(payload.Heartbeat.Components) != 1 || payload.Heartbeat.Components[0].Name != "scheduler" {
		t.Fatalf("unexpected heartbeat: %+v", payload.Heartbeat)
	}
}

func TestRunsEndpoint(t *testing.T) {
	handler, sqlStore, _ := newTestRouter(t)
	if err := sqlStore.RecordRun(context.Background(), store.RunRecord{
		ID:               "run-1",
		StartedAt:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC),
		MentionsFound:    3,
		RepliesSucceeded: 2,
		RepliesFailed:    1,
	}); err != nil {
		t.Fatalf("record run: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("runs returned %d", recorder.Code)
	}

	var payload struct {
		Runs []struct {
			ID               string `json:"id"`
			MentionsFound    int    `json:"mentions_found"`
			RepliesSucceeded int    `json:"replies_succeeded"`
			RepliesFailed    int    `json:"replies_failed"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(payload.Runs) != 1 || payload.Runs[0].ID != "run-1" {
		t.Fatalf("unexpected runs payload: %+v", payload.Runs)
	}
	if payload.Runs[0].RepliesSucceeded != 2 {
		t.Fatalf("unexpected counters: %+v", payload.Runs[0])
	}
}

func TestRecordsEndpointRejectsPost(t *testing.T) {
	handler, _, _ := newTestRouter(t)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/records", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", recorder.Code)
	}
}
