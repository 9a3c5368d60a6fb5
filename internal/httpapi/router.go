// Package httpapi serves the read-only status surface: liveness,
// component heartbeats and recent run counters. There is no mutation
// endpoint; the pipeline is driven by the scheduler only.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mentiond/mentiond/internal/config"
	"github.com/mentiond/mentiond/internal/heartbeat"
	"github.com/mentiond/mentiond/internal/store"
)

type Dependencies struct {
	Config    config.Config
	Store     *store.Store
	Heartbeat *heartbeat.Registry
	Logger    *slog.Logger
}

type router struct {
	deps Dependencies
}

func NewRouter(deps Dependencies) http.Handler {
	rt := &router{deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.handleHealth)
	mux.HandleFunc("/readyz", rt.handleReady)
	mux.HandleFunc("/api/v1/status", rt.handleStatus)
	mux.HandleFunc("/api/v1/runs", rt.handleRuns)
	mux.HandleFunc("/api/v1/records", rt.handleRecords)
	return mux
}

func (r *router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.deps.Store.Ping(req.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (r *router) handleStatus(w http.ResponseWriter, req *http.Request) {
	staleAfter := time.Duration(r.deps.Config.HeartbeatStaleSec) * time.Second
	writeJSON(w, http.StatusOK, map[string]any{
		"environment": r.deps.Config.Environment,
		"heartbeat":   r.deps.Heartbeat.Snapshot(staleAfter),
	})
}

func (r *router) handleRuns(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	runs, err := r.deps.Store.ListRuns(req.Context(), parseLimit(req, 20))
	if err != nil {
		r.deps.Logger.Error("list runs failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
		return
	}
	payload := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		payload = append(payload, map[string]any{
			"id":                run.ID,
			"started_at":        run.StartedAt.Format(time.RFC3339),
			"finished_at":       run.FinishedAt.Format(time.RFC3339),
			"mentions_found":    run.MentionsFound,
			"replies_succeeded": run.RepliesSucceeded,
			"replies_failed":    run.RepliesFailed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": payload})
}

func (r *router) handleRecords(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	records, err := r.deps.Store.ListReplyRecords(req.Context(), parseLimit(req, 50))
	if err != nil {
		r.deps.Logger.Error("list reply records failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list reply records failed"})
		return
	}
	payload := make([]map[string]any, 0, len(records))
	for _, record := range records {
		payload = append(payload, map[string]any{
			"source_post_id":  record.SourcePostID,
			"reply_post_id":   record.ReplyPostID,
			"reply_post_text": record.ReplyPostText,
			"replied_at":      record.RepliedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": payload})
}

func parseLimit(req *http.Request, fallback int) int {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 500 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
