package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/claimflow/claimflow/internal/handler/dto"
	"github.com/claimflow/claimflow/internal/store"
)

// Diagnostic status strings reported by GET /test.
const (
	StatusRunning          = "✅ Running"
	StatusNotAvailable     = "❌ Not Available"
	StatusModuleNotFound   = "❌ Database module not found (run enable-database first)"
	StatusNotInitialized   = "⚠️  Available but not initialized"
	StatusAvailable        = "✅ Available"
	StatusConfigured       = "✅ Configured"
	StatusConnected        = "✅ Connected"
	StatusWorking          = "✅ Connected & Working"
	StatusSet              = "✅ Set"
	StatusNotSet           = "❌ Not Set"
	ConnectionConnected    = "Connected"
	ConnectionNotConnected = "Not Connected"
)

// maxCollections bounds the collection names reported by GET /test.
const maxCollections = 10

// maxErrorRunes bounds error text embedded in diagnostic strings.
const maxErrorRunes = 50

// DiagnosticsConfig holds what the diagnostics endpoint reports on.
type DiagnosticsConfig struct {
	Store store.DocumentStore
	// OpenErr is the error returned while connecting the store, if any.
	OpenErr      error
	DatabaseURL  string
	DatabaseName string
	Timeout      time.Duration
}

// DiagnosticsHandler reports backend and database reachability.
type DiagnosticsHandler struct {
	cfg    DiagnosticsConfig
	logger *slog.Logger
}

// NewDiagnosticsHandler creates a DiagnosticsHandler.
func NewDiagnosticsHandler(cfg DiagnosticsConfig, logger *slog.Logger) *DiagnosticsHandler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnosticsHandler{cfg: cfg, logger: logger}
}

// Test runs every probe and always answers 200. A failing probe is reported
// inline and never aborts the ones after it.
// GET /test
func (h *DiagnosticsHandler) Test(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	resp := &dto.DiagnosticsResponse{
		Backend:          StatusRunning,
		Database:         StatusNotAvailable,
		ConnectionStatus: ConnectionNotConnected,
		Collections:      []string{},
	}

	h.probe(resp, "availability", func() { h.probeAvailability(resp) })
	if h.cfg.Store != nil {
		h.probe(resp, "collections", func() { h.probeCollections(ctx, resp) })
	}
	h.probe(resp, "environment", func() { h.probeEnvironment(resp) })

	if resp.Collections == nil {
		resp.Collections = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// probe runs fn and turns a panic into an inline database status.
func (h *DiagnosticsHandler) probe(resp *dto.DiagnosticsResponse, name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Warn("diagnostic probe panicked", "probe", name, "panic", rec)
			resp.Database = "❌ Error: " + truncate(fmt.Sprint(rec), maxErrorRunes)
		}
	}()
	fn()
}

func (h *DiagnosticsHandler) probeAvailability(resp *dto.DiagnosticsResponse) {
	switch {
	case h.cfg.OpenErr != nil && errors.Is(h.cfg.OpenErr, store.ErrUnknownDriver):
		resp.Database = StatusModuleNotFound
	case h.cfg.OpenErr != nil:
		resp.Database = "❌ Error: " + truncate(h.cfg.OpenErr.Error(), maxErrorRunes)
	case h.cfg.Store == nil:
		resp.Database = StatusNotInitialized
	default:
		resp.Database = StatusAvailable
		resp.DatabaseURL = StatusConfigured
		resp.DatabaseName = h.cfg.Store.Name()
		if resp.DatabaseName == "" {
			resp.DatabaseName = StatusConnected
		}
		resp.ConnectionStatus = ConnectionConnected
	}
}

func (h *DiagnosticsHandler) probeCollections(ctx context.Context, resp *dto.DiagnosticsResponse) {
	names, err := h.cfg.Store.ListCollections(ctx)
	if err != nil {
		h.logger.Warn("diagnostic collection listing failed", "error", err)
		resp.Database = "⚠️  Connected but Error: " + truncate(err.Error(), maxErrorRunes)
		return
	}

	if len(names) > maxCollections {
		names = names[:maxCollections]
	}
	resp.Collections = append([]string{}, names...)
	resp.Database = StatusWorking
}

func (h *DiagnosticsHandler) probeEnvironment(resp *dto.DiagnosticsResponse) {
	resp.DatabaseURL = presence(h.cfg.DatabaseURL)
	resp.DatabaseName = presence(h.cfg.DatabaseName)
}

func presence(value string) string {
	if value == "" {
		return StatusNotSet
	}
	return StatusSet
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
