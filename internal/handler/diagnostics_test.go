package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claimflow/claimflow/internal/handler/dto"
	"github.com/claimflow/claimflow/internal/store"
)

func runDiagnostics(t *testing.T, cfg DiagnosticsConfig) (dto.DiagnosticsResponse, map[string]any) {
	t.Helper()

	h := NewDiagnosticsHandler(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	h.Test(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.Bytes()
	var response dto.DiagnosticsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response, raw
}

func TestDiagnosticsHandler_NoStore(t *testing.T) {
	resp, raw := runDiagnostics(t, DiagnosticsConfig{})

	if resp.Backend != StatusRunning {
		t.Errorf("unexpected backend: %s", resp.Backend)
	}
	if resp.Database != StatusNotInitialized {
		t.Errorf("unexpected database: %s", resp.Database)
	}
	if resp.DatabaseURL != StatusNotSet || resp.DatabaseName != StatusNotSet {
		t.Errorf("unexpected env presence: %s / %s", resp.DatabaseURL, resp.DatabaseName)
	}
	if resp.ConnectionStatus != ConnectionNotConnected {
		t.Errorf("unexpected connection status: %s", resp.ConnectionStatus)
	}

	collections, ok := raw["collections"].([]any)
	if !ok {
		t.Fatalf("collections must be an array, got %T", raw["collections"])
	}
	if len(collections) != 0 {
		t.Errorf("expected no collections, got %v", collections)
	}
}

func TestDiagnosticsHandler_UnknownDriver(t *testing.T) {
	openErr := fmt.Errorf("%w: scheme %q", store.ErrUnknownDriver, "mongodb")
	resp, _ := runDiagnostics(t, DiagnosticsConfig{
		OpenErr:     openErr,
		DatabaseURL: "mongodb://localhost",
	})

	if resp.Database != StatusModuleNotFound {
		t.Errorf("unexpected database: %s", resp.Database)
	}
	if resp.DatabaseURL != StatusSet {
		t.Errorf("expected database_url set, got %s", resp.DatabaseURL)
	}
	if resp.DatabaseName != StatusNotSet {
		t.Errorf("expected database_name not set, got %s", resp.DatabaseName)
	}
}

func TestDiagnosticsHandler_OpenError(t *testing.T) {
	openErr := errors.New(strings.Repeat("x", 80))
	resp, _ := runDiagnostics(t, DiagnosticsConfig{OpenErr: openErr})

	want := "❌ Error: " + strings.Repeat("x", 50)
	if resp.Database != want {
		t.Errorf("expected %q, got %q", want, resp.Database)
	}
}

func TestDiagnosticsHandler_Working(t *testing.T) {
	s := &mockStore{name: "claimflow", collections: []string{"contactsubmission", "subscriber"}}
	resp, _ := runDiagnostics(t, DiagnosticsConfig{
		Store:        s,
		DatabaseURL:  "postgres://localhost/claimflow",
		DatabaseName: "claimflow",
	})

	if resp.Database != StatusWorking {
		t.Errorf("unexpected database: %s", resp.Database)
	}
	if resp.ConnectionStatus != ConnectionConnected {
		t.Errorf("unexpected connection status: %s", resp.ConnectionStatus)
	}
	if resp.DatabaseURL != StatusSet || resp.DatabaseName != StatusSet {
		t.Errorf("env presence must override: %s / %s", resp.DatabaseURL, resp.DatabaseName)
	}
	if len(resp.Collections) != 2 || resp.Collections[0] != "contactsubmission" {
		t.Errorf("unexpected collections: %v", resp.Collections)
	}
}

func TestDiagnosticsHandler_CollectionsCapped(t *testing.T) {
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("c%02d", i)
	}
	s := &mockStore{collections: names}

	resp, _ := runDiagnostics(t, DiagnosticsConfig{Store: s})

	if len(resp.Collections) != 10 {
		t.Fatalf("expected 10 collections, got %d", len(resp.Collections))
	}
	if resp.Collections[9] != "c09" {
		t.Errorf("expected first 10 collections, got %v", resp.Collections)
	}
	if len(s.collections) != 25 {
		t.Error("store slice must not be modified")
	}
}

func TestDiagnosticsHandler_ListError(t *testing.T) {
	s := &mockStore{listErr: errors.New("permission denied for schema claimflow and then some more text")}
	resp, _ := runDiagnostics(t, DiagnosticsConfig{Store: s})

	if !strings.HasPrefix(resp.Database, "⚠️  Connected but Error: permission denied") {
		t.Errorf("unexpected database: %s", resp.Database)
	}
	detail := strings.TrimPrefix(resp.Database, "⚠️  Connected but Error: ")
	if len([]rune(detail)) != 50 {
		t.Errorf("expected error truncated to 50 runes, got %d", len([]rune(detail)))
	}
	if resp.ConnectionStatus != ConnectionConnected {
		t.Errorf("unexpected connection status: %s", resp.ConnectionStatus)
	}
	if resp.Collections == nil || len(resp.Collections) != 0 {
		t.Errorf("expected empty collections, got %v", resp.Collections)
	}
}

func TestDiagnosticsHandler_ProbePanic(t *testing.T) {
	s := &mockStore{name: "claimflow", listPanic: "driver exploded"}
	resp, _ := runDiagnostics(t, DiagnosticsConfig{Store: s, DatabaseName: "claimflow"})

	if resp.Database != "❌ Error: driver exploded" {
		t.Errorf("unexpected database: %s", resp.Database)
	}
	if resp.Backend != StatusRunning {
		t.Errorf("unexpected backend: %s", resp.Backend)
	}
	if resp.DatabaseName != StatusSet {
		t.Errorf("later probes must still run, got database_name %s", resp.DatabaseName)
	}
}

func TestDiagnosticsHandler_EmptyStoreName(t *testing.T) {
	s := &mockStore{}
	h := NewDiagnosticsHandler(DiagnosticsConfig{Store: s}, nil)
	resp := &dto.DiagnosticsResponse{}

	h.probeAvailability(resp)

	if resp.DatabaseName != StatusConnected {
		t.Errorf("expected %q, got %q", StatusConnected, resp.DatabaseName)
	}
	if resp.DatabaseURL != StatusConfigured {
		t.Errorf("expected %q, got %q", StatusConfigured, resp.DatabaseURL)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 50, "short"},
		{"abcdef", 3, "abc"},
		{"ééééé", 2, "éé"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
