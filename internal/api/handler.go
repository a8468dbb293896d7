package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/coffee-env/internal/environment"
	"github.com/eugenenazirov/coffee-env/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler exposes the published environment record over HTTP.
type Handler struct {
	store storage.Store
	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler reading from the provided store.
func NewHandler(store storage.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		store: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		LoadedAt:  h.store.LoadedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.store.Document())
}

// handleEnvironmentModule renders the record as an ES module so a front-end
// bundle can `import { environment } from '/environment.js'`.
func (h *Handler) handleEnvironmentModule(w http.ResponseWriter, r *http.Request) {
	if h.notModified(w, r) {
		return
	}

	body, err := RenderModule(h.store.Environment())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// notModified sets the caching headers and answers 304 when the client
// already holds the current record.
func (h *Handler) notModified(w http.ResponseWriter, r *http.Request) bool {
	etag := h.store.ETag()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if !etagMatches(r.Header.Get("If-None-Match"), etag) {
		return false
	}
	w.WriteHeader(http.StatusNotModified)
	return true
}

// RenderModule encodes env as `export const environment = {...};`.
func RenderModule(env environment.Environment) ([]byte, error) {
	doc, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode environment: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("export const environment = ")
	buf.Write(doc)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// etagMatches implements the weak comparison used by If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LoadedAt  time.Time `json:"loadedAt"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
