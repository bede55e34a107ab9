package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"thetowers/server/internal/equipment"
	"thetowers/server/internal/ledger"
	"thetowers/server/internal/loop"
	"thetowers/server/internal/match"
	"thetowers/server/internal/net/ws"
	"thetowers/server/logging"
)

type staticStats logging.RouterStats

func (s staticStats) Stats() logging.RouterStats { return logging.RouterStats(s) }

func newTestHandler(t *testing.T, token string) (http.Handler, *match.Session) {
	t.Helper()

	l := loop.New(loop.Config{TickRate: 200})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	registry := ledger.NewRegistry(ledger.RegistryConfig{})
	cfg := match.DefaultConfig()
	cfg.StartDelay = 0
	session, err := match.NewSession(cfg, match.Deps{Loop: l, Registry: registry})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(session.Shutdown)

	catalog, err := equipment.DefaultCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	handler := NewHTTPHandler(HTTPHandlerConfig{
		Loop:       l,
		Session:    session,
		Catalog:    catalog,
		Hub:        ws.NewHub(nil),
		Ledgers:    registry,
		Router:     staticStats{EventsTotal: 7},
		AdminToken: token,
	})
	return handler, session
}

func serve(handler http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	handler, _ := newTestHandler(t, "")
	resp := serve(handler, http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestDiagnosticsReportsMatch(t *testing.T) {
	handler, session := newTestHandler(t, "")

	resp := serve(handler, http.MethodGet, "/diagnostics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var payload struct {
		Status   string `json:"status"`
		TickRate int    `json:"tickRate"`
		Match    struct {
			ID    string `json:"id"`
			Stage string `json:"stage"`
			PvP   bool   `json:"pvp"`
		} `json:"match"`
		Logging logging.RouterStats `json:"logging"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Match.ID != session.ID() || payload.Match.Stage != "LOBBY" || payload.Match.PvP {
		t.Fatalf("unexpected match view: %+v", payload.Match)
	}
	if payload.TickRate != 200 || payload.Logging.EventsTotal != 7 {
		t.Fatalf("unexpected diagnostics: %+v", payload)
	}
}

func TestMatchTransitions(t *testing.T) {
	handler, _ := newTestHandler(t, "")

	tests := []struct {
		path   string
		status int
		stage  string
	}{
		{"/match/begin", http.StatusConflict, ""},
		{"/match/start", http.StatusOK, "WAITING"},
		{"/match/begin", http.StatusOK, "IN_PROGRESS"},
		{"/match/finish", http.StatusOK, "FINISHED"},
		{"/match/reset", http.StatusOK, "LOBBY"},
		{"/match/explode", http.StatusNotFound, ""},
	}
	for _, tc := range tests {
		resp := serve(handler, http.MethodPost, tc.path, "")
		if resp.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d (%s)", tc.path, tc.status, resp.Code, resp.Body.String())
		}
		if tc.stage == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s: failed to decode: %v", tc.path, err)
		}
		if payload["stage"] != tc.stage {
			t.Fatalf("%s: expected stage %s, got %v", tc.path, tc.stage, payload["stage"])
		}
	}

	if resp := serve(handler, http.MethodGet, "/match/start", ""); resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected GET rejected, got %d", resp.Code)
	}
}

func TestMatchRequiresAdminToken(t *testing.T) {
	handler, _ := newTestHandler(t, "secret")

	if resp := serve(handler, http.MethodPost, "/match/start", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	if resp := serve(handler, http.MethodPost, "/match/start", "wrong"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", resp.Code)
	}
	if resp := serve(handler, http.MethodPost, "/match/start", "secret"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}
}

func TestEquipmentCatalog(t *testing.T) {
	handler, _ := newTestHandler(t, "")

	resp := serve(handler, http.MethodGet, "/equipment/catalog", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	var payload struct {
		Items []struct {
			ID   string             `json:"id"`
			Tags map[string]float64 `json:"tags"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode catalog: %v", err)
	}
	if len(payload.Items) == 0 {
		t.Fatalf("expected catalog items")
	}
}
