package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"thetowers/server/internal/telemetry"
	"thetowers/server/logging"
	loggingLifecycle "thetowers/server/logging/lifecycle"
)

// DefaultSweepInterval is how often registered ledgers are swept.
const DefaultSweepInterval = time.Second

var ErrRegistryClosed = errors.New("ledger registry is shut down")

// Sweeper is anything the registry can expire on a timer.
type Sweeper interface {
	Sweep(now time.Time) int
}

type RegistryConfig struct {
	Interval  time.Duration
	Clock     logging.Clock
	Logger    telemetry.Logger
	Publisher logging.Publisher
	// Dispatch, when set, receives each sweep pass instead of running it on
	// the timer goroutine. The game loop uses it to keep every ledger
	// mutation on the main thread.
	Dispatch func(task func()) bool
}

// Registry tracks live ledgers and sweeps them periodically. One registry
// exists per running match process.
type Registry struct {
	cfg RegistryConfig

	mu       sync.Mutex
	sweepers map[Sweeper]struct{}
	started  bool
	closed   bool
	stop     chan struct{}
	done     chan struct{}
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(nil)
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	return &Registry{
		cfg:      cfg,
		sweepers: make(map[Sweeper]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Calling it more than once, or after
// Shutdown, returns ErrRegistryClosed for the latter and nil otherwise.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if r.started {
		return nil
	}
	r.started = true
	go r.run()
	return nil
}

func (r *Registry) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if r.cfg.Dispatch != nil {
				if !r.cfg.Dispatch(func() { r.SweepAll(r.cfg.Clock.Now()) }) {
					r.cfg.Logger.Printf("[ledger] sweep dispatch rejected")
				}
				continue
			}
			r.SweepAll(r.cfg.Clock.Now())
		}
	}
}

func (r *Registry) Register(s Sweeper) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	r.sweepers[s] = struct{}{}
	return nil
}

func (r *Registry) Unregister(s Sweeper) {
	if s == nil {
		return
	}
	r.mu.Lock()
	delete(r.sweepers, s)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sweepers)
}

// SweepAll sweeps every registered ledger once. A panic in one ledger is
// recovered and reported; the remaining ledgers are still swept. It returns
// the number of entries removed and the number of failed ledgers.
func (r *Registry) SweepAll(now time.Time) (removed int, failed int) {
	r.mu.Lock()
	sweepers := make([]Sweeper, 0, len(r.sweepers))
	for s := range r.sweepers {
		sweepers = append(sweepers, s)
	}
	r.mu.Unlock()

	for _, s := range sweepers {
		n, err := sweepOne(s, now)
		if err != nil {
			failed++
			r.cfg.Logger.Printf("[ledger] sweep failed: %v", err)
			loggingLifecycle.LedgerSweepFailed(context.Background(), r.cfg.Publisher, loggingLifecycle.SweepFailedPayload{Error: err.Error()}, nil)
			continue
		}
		removed += n
	}
	return removed, failed
}

func sweepOne(s Sweeper, now time.Time) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sweeper %T panicked: %v", s, rec)
		}
	}()
	return s.Sweep(now), nil
}

// Shutdown stops the sweep loop and waits for it to exit. Later calls are
// no-ops.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	started := r.started
	close(r.stop)
	r.mu.Unlock()
	if started {
		<-r.done
	}
}

func (r *Registry) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
