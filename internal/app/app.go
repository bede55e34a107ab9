package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"thetowers/server/internal/combat"
	"thetowers/server/internal/config"
	"thetowers/server/internal/equipment"
	"thetowers/server/internal/i18n"
	"thetowers/server/internal/ledger"
	"thetowers/server/internal/loop"
	"thetowers/server/internal/match"
	servernet "thetowers/server/internal/net"
	"thetowers/server/internal/net/ws"
	"thetowers/server/internal/observability"
	"thetowers/server/internal/telemetry"
	"thetowers/server/logging"
	loggingSinks "thetowers/server/logging/sinks"
)

// Options override pieces of the runtime, mostly for tests.
type Options struct {
	Zap   *zap.Logger
	Clock logging.Clock
	// Sinks are attached to the event router in addition to the configured
	// ones.
	Sinks []logging.NamedSink
}

// Runtime owns every long-lived component of the server process.
type Runtime struct {
	cfg      config.Config
	zap      *zap.Logger
	logger   telemetry.Logger
	Router   *logging.Router
	Loop     *loop.Loop
	Registry *ledger.Registry
	Session  *match.Session
	Resolver *combat.Resolver
	Hub      *ws.Hub
	Catalog  *equipment.Catalog

	cancel   context.CancelFunc
	loopDone chan struct{}
	closeMu  sync.Mutex
	closed   bool
}

// New builds a runtime from cfg. Nothing runs until Start.
func New(cfg config.Config, opts Options) (*Runtime, error) {
	zapLogger := opts.Zap
	if zapLogger == nil {
		var err error
		if cfg.Logging.Development {
			zapLogger, err = zap.NewDevelopment()
		} else {
			zapLogger, err = zap.NewProduction()
		}
		if err != nil {
			return nil, fmt.Errorf("build zap logger: %w", err)
		}
	}
	logger := telemetry.WrapZap(zapLogger)
	clock := opts.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}

	catalog, err := loadCatalog(cfg.Combat.Catalog)
	if err != nil {
		return nil, err
	}
	messages, err := i18n.New(cfg.Server.Locale)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	logCfg := cfg.RouterConfig()
	sinks, err := buildSinks(logCfg, zapLogger)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, opts.Sinks...)
	router := logging.NewRouter(clock, logCfg, telemetry.StandardLogger(logger), sinks)

	gameLoop := loop.New(loop.Config{
		TickRate: cfg.Server.TickRate,
		Capacity: cfg.Server.QueueCapacity,
		Logger:   logger,
	})
	registry := ledger.NewRegistry(ledger.RegistryConfig{
		Interval:  cfg.Ledger.SweepInterval,
		Clock:     clock,
		Logger:    logger,
		Publisher: router,
		Dispatch:  gameLoop.Enqueue,
	})
	hub := ws.NewHub(logger)

	session, err := match.NewSession(cfg.SessionConfig(), match.Deps{
		Loop:        gameLoop,
		Registry:    registry,
		Broadcaster: hub,
		Messages:    messages,
		Publisher:   router,
		Logger:      logger,
		Clock:       clock,
	})
	if err != nil {
		router.Close(context.Background())
		return nil, fmt.Errorf("create match session: %w", err)
	}

	resolver := combat.NewResolver(cfg.ResolverConfig(), session, gameLoop, clock, logging.WithFields(router, map[string]any{"match": session.ID()}))
	gameLoop.OnTick(func(tick uint64, _ time.Time) {
		resolver.Invulnerability().Prune(tick)
	})

	return &Runtime{
		cfg:      cfg,
		zap:      zapLogger,
		logger:   logger,
		Router:   router,
		Loop:     gameLoop,
		Registry: registry,
		Session:  session,
		Resolver: resolver,
		Hub:      hub,
		Catalog:  catalog,
	}, nil
}

func loadCatalog(path string) (*equipment.Catalog, error) {
	if path == "" {
		return equipment.DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open equipment catalog: %w", err)
	}
	defer f.Close()
	catalog, err := equipment.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load equipment catalog %s: %w", path, err)
	}
	return catalog, nil
}

func buildSinks(cfg logging.Config, zapLogger *zap.Logger) ([]logging.NamedSink, error) {
	var sinks []logging.NamedSink
	if cfg.Enabled(logging.SinkConsole) {
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkConsole, Sink: loggingSinks.NewConsole(os.Stdout)})
	}
	if cfg.Enabled(logging.SinkJSON) {
		// Hide Close so shutting the sink down leaves stdout open.
		var w io.Writer = struct{ io.Writer }{os.Stdout}
		if cfg.JSON.Path != "" {
			f, err := os.OpenFile(cfg.JSON.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open json log %s: %w", cfg.JSON.Path, err)
			}
			w = f
		}
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkJSON, Sink: loggingSinks.NewJSON(w, cfg.JSON.FlushInterval)})
	}
	if cfg.Enabled(logging.SinkZap) {
		sinks = append(sinks, logging.NamedSink{Name: logging.SinkZap, Sink: loggingSinks.NewZap(zapLogger)})
	}
	return sinks, nil
}

// Start runs the game loop and the ledger sweeper in the background.
func (r *Runtime) Start(ctx context.Context) error {
	if err := r.Registry.Start(); err != nil {
		return fmt.Errorf("start ledger registry: %w", err)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	go func() {
		defer close(r.loopDone)
		if err := r.Loop.Run(loopCtx); err != nil {
			r.logger.Printf("[app] game loop stopped: %v", err)
		}
	}()
	return nil
}

// Submit queues an interaction for the next tick.
func (r *Runtime) Submit(in combat.Interaction) bool {
	return r.Loop.Enqueue(func() {
		r.Resolver.Resolve(context.Background(), in)
	})
}

// Resolve runs an interaction on the loop and waits for its outcome.
func (r *Runtime) Resolve(ctx context.Context, in combat.Interaction) (combat.Outcome, error) {
	var out combat.Outcome
	err := r.Loop.Do(ctx, func() {
		out = r.Resolver.Resolve(ctx, in)
	})
	return out, err
}

// Equip replaces a combatant's loadout with catalog items.
func (r *Runtime) Equip(ctx context.Context, combatantID string, itemIDs ...string) error {
	loadout, err := r.Catalog.Loadout(itemIDs...)
	if err != nil {
		return err
	}
	var equipErr error
	if err := r.Loop.Do(ctx, func() {
		c, ok := r.Session.Combatant(combatantID)
		if !ok {
			equipErr = fmt.Errorf("%w: %q", match.ErrUnknownCombatant, combatantID)
			return
		}
		c.SetLoadout(loadout)
	}); err != nil {
		return err
	}
	return equipErr
}

func (r *Runtime) Handler() http.Handler {
	return servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		Loop:       r.Loop,
		Session:    r.Session,
		Catalog:    r.Catalog,
		Hub:        r.Hub,
		Ledgers:    r.Registry,
		Router:     r.Router,
		Logger:     r.logger,
		AdminToken: r.cfg.Server.AdminToken,
		Observability: observability.Config{
			EnablePprof: r.cfg.Server.Pprof,
		},
	})
}

// Close stops every component in dependency order. It is idempotent.
func (r *Runtime) Close(ctx context.Context) error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	// The loop goes first so no task can schedule session timers while they
	// are being drained.
	if r.cancel != nil {
		r.cancel()
		<-r.loopDone
	}
	r.Session.Shutdown()
	r.Registry.Shutdown()
	r.Hub.Close()
	err := r.Router.Close(ctx)
	// Sync fails on stdout/stderr on some platforms; the error carries no signal.
	_ = r.zap.Sync()
	return err
}

// Run serves the HTTP surface until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	rt, err := New(cfg, Options{})
	if err != nil {
		return err
	}
	if err := rt.Start(ctx); err != nil {
		rt.Close(context.Background())
		return err
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: rt.Handler()}
	serveErr := make(chan error, 1)
	go func() {
		rt.logger.Printf("server listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		rt.logger.Printf("http shutdown: %v", serr)
	}
	if cerr := rt.Close(shutdownCtx); cerr != nil {
		rt.logger.Printf("failed to close runtime: %v", cerr)
	}
	return err
}
