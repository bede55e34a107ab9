package net

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"strings"
	"time"

	"thetowers/server/internal/equipment"
	"thetowers/server/internal/match"
	"thetowers/server/internal/net/ws"
	"thetowers/server/internal/observability"
	"thetowers/server/internal/telemetry"
	"thetowers/server/logging"
)

// Loop runs closures on the game loop and waits for them.
type Loop interface {
	Do(ctx context.Context, fn func()) error
	Tick() uint64
	TickRate() int
}

type HTTPHandlerConfig struct {
	Loop          Loop
	Session       *match.Session
	Catalog       *equipment.Catalog
	Hub           *ws.Hub
	Ledgers       interface{ Len() int }
	Router        interface{ Stats() logging.RouterStats }
	Logger        telemetry.Logger
	AdminToken    string
	Observability observability.Config
}

const loopTimeout = 2 * time.Second

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		var snapshot match.Snapshot
		var tick uint64
		if err := onLoop(r.Context(), cfg.Loop, func() {
			snapshot = cfg.Session.Snapshot()
			tick = cfg.Loop.Tick()
		}); err != nil {
			logger.Printf("[http] diagnostics unavailable: %v", err)
			httpError(w, "loop unavailable", nethttp.StatusServiceUnavailable)
			return
		}

		payload := struct {
			Status     string              `json:"status"`
			ServerTime int64               `json:"serverTime"`
			Tick       uint64              `json:"tick"`
			TickRate   int                 `json:"tickRate"`
			Match      match.Snapshot      `json:"match"`
			Ledgers    int                 `json:"ledgers"`
			Observers  int                 `json:"observers"`
			Logging    logging.RouterStats `json:"logging"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       tick,
			TickRate:   cfg.Loop.TickRate(),
			Match:      snapshot,
		}
		if cfg.Ledgers != nil {
			payload.Ledgers = cfg.Ledgers.Len()
		}
		if cfg.Hub != nil {
			payload.Observers = cfg.Hub.Count()
		}
		if cfg.Router != nil {
			payload.Logging = cfg.Router.Stats()
		}
		writeJSON(w, nethttp.StatusOK, payload)
	})

	mux.HandleFunc("/match/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, cfg.AdminToken) {
			httpError(w, "unauthorized", nethttp.StatusUnauthorized)
			return
		}

		var transition func() error
		switch action := strings.TrimPrefix(r.URL.Path, "/match/"); action {
		case "start":
			transition = cfg.Session.Start
		case "begin":
			transition = cfg.Session.Begin
		case "finish":
			transition = cfg.Session.Finish
		case "reset":
			transition = cfg.Session.Reset
		default:
			httpError(w, "unknown action", nethttp.StatusNotFound)
			return
		}

		var terr error
		var stage match.Stage
		if err := onLoop(r.Context(), cfg.Loop, func() {
			terr = transition()
			stage = cfg.Session.Stage()
		}); err != nil {
			logger.Printf("[http] stage change unavailable: %v", err)
			httpError(w, "loop unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		if terr != nil {
			status := nethttp.StatusInternalServerError
			if errors.Is(terr, match.ErrInvalidTransition) {
				status = nethttp.StatusConflict
			}
			httpError(w, terr.Error(), status)
			return
		}

		writeJSON(w, nethttp.StatusOK, struct {
			Status string      `json:"status"`
			Stage  match.Stage `json:"stage"`
		}{Status: "ok", Stage: stage})
	})

	mux.HandleFunc("/equipment/catalog", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		items := []*equipment.Item{}
		if cfg.Catalog != nil {
			items = cfg.Catalog.Items()
		}
		writeJSON(w, nethttp.StatusOK, struct {
			Items []*equipment.Item `json:"items"`
		}{Items: items})
	})

	if cfg.Hub != nil {
		handler := ws.NewHandler(cfg.Hub, ws.HandlerConfig{Logger: logger})
		mux.HandleFunc("/ws", handler.Handle)
	}

	cfg.Observability.Mount(mux)

	return mux
}

func onLoop(ctx context.Context, loop Loop, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, loopTimeout)
	defer cancel()
	return loop.Do(ctx, fn)
}

func authorized(r *nethttp.Request, token string) bool {
	if token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
