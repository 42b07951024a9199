// Package api implements the HTTP surface of the listings service.
//
// Routes:
//
//	GET  /health                     → liveness
//	POST /jobs/ingest                → upsert a batch of canonical postings (x-seed-secret)
//	GET  /tasks                      → scheduled task status
//	POST /tasks/{id}/run             → run a task now and return its stats
//	POST /tasks/{id}/enable|disable  → arm or disarm a task
//	GET  /cleanup/preview            → what the next cleanup would touch
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "jobmate/listings-service/internal/errors"
	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/ingest"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/model"
	"jobmate/listings-service/internal/scheduler"
)

const maxIngestBody = 16 << 20

type Ingester interface {
	Ingest(ctx context.Context, jobs []model.Job) (ingest.Result, error)
}

type TaskRunner interface {
	Status() []scheduler.TaskStatus
	Trigger(ctx context.Context, id string) (any, error)
	Enable(id string) error
	Disable(id string) error
}

type CleanupPreviewer interface {
	Preview(ctx context.Context) (model.CleanupPreview, error)
}

// Handler holds shared dependencies.
type Handler struct {
	ingester Ingester
	tasks    TaskRunner
	cleanup  CleanupPreviewer
	secret   string
	dev      bool
	version  string
	logger   *zap.Logger
}

// NewHandler returns a configured Handler. An empty secret rejects every
// ingest request unless dev is set.
func NewHandler(ingester Ingester, tasks TaskRunner, cleanup CleanupPreviewer, secret string, dev bool, version string, logger *zap.Logger) *Handler {
	return &Handler{
		ingester: ingester,
		tasks:    tasks,
		cleanup:  cleanup,
		secret:   secret,
		dev:      dev,
		version:  version,
		logger:   logging.OrNop(logger).Named("api"),
	}
}

// RegisterRoutes mounts all listings-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/jobs/ingest", h.ingest)
	mux.HandleFunc("/tasks", h.listTasks)
	mux.HandleFunc("/tasks/", h.taskAction)
	mux.HandleFunc("/cleanup/preview", h.cleanupPreview)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "listings-service",
		"version": h.version,
	})
}

// ingest handles POST /jobs/ingest with an events.Batch body.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		jsonError(w, "invalid or missing x-seed-secret header", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		jsonError(w, "could not read body", http.StatusBadRequest)
		return
	}
	batch, err := events.DecodeBatch(data)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if len(batch.Jobs) == 0 {
		jsonError(w, "body must contain a non-empty jobs array", http.StatusBadRequest)
		return
	}

	res, err := h.ingester.Ingest(r.Context(), batch.Jobs)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	jsonOK(w, res)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return h.dev
	}
	got := r.Header.Get("x-seed-secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.tasks.Status())
}

// taskAction handles POST /tasks/{id}/run|enable|disable
func (h *Handler) taskAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id, action := parts[1], parts[2]

	var err error
	switch action {
	case "run":
		var result any
		result, err = h.tasks.Trigger(r.Context(), id)
		if err == nil {
			jsonOK(w, map[string]any{"task": id, "result": result})
			return
		}
	case "enable":
		err = h.tasks.Enable(id)
	case "disable":
		err = h.tasks.Disable(id)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeErr(w, err)
		return
	}
	jsonOK(w, map[string]any{"task": id, "enabled": action == "enable"})
}

func (h *Handler) cleanupPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	preview, err := h.cleanup.Preview(r.Context())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	jsonOK(w, preview)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	jsonError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrUnknownTask):
		return http.StatusNotFound
	case errors.Is(err, scheduler.ErrTaskRunning):
		return http.StatusConflict
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrTypeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrTypeConflict:
		return http.StatusConflict
	case apperrors.ErrTypeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
