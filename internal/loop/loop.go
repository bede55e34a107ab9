// Package loop runs the single game thread. Every mutation of combatant, team
// and world state happens inside a task or step hook executed here; other
// goroutines hand work over with Enqueue or Do.
package loop

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"thetowers/server/internal/telemetry"
)

const (
	DefaultTickRate = 20
	DefaultCapacity = 1024
)

var (
	ErrQueueFull = errors.New("loop task queue is full")
	ErrStopped   = errors.New("loop is not running")
)

type Config struct {
	TickRate int
	Capacity int
	Logger   telemetry.Logger
}

// Loop drains queued tasks at the start of every tick, then runs step hooks.
type Loop struct {
	cfg    Config
	buffer *TaskBuffer
	tick   atomic.Uint64

	hooksMu sync.Mutex
	hooks   []func(tick uint64, now time.Time)

	running atomic.Bool
	stopped chan struct{}
	once    sync.Once
}

func New(cfg Config) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(nil)
	}
	return &Loop{
		cfg:     cfg,
		buffer:  NewTaskBuffer(cfg.Capacity),
		stopped: make(chan struct{}),
	}
}

// Tick reports the number of completed ticks.
func (l *Loop) Tick() uint64 {
	return l.tick.Load()
}

func (l *Loop) TickRate() int {
	return l.cfg.TickRate
}

// Interval is the wall-clock duration of one tick.
func (l *Loop) Interval() time.Duration {
	return time.Second / time.Duration(l.cfg.TickRate)
}

// Enqueue schedules task for the next tick. It returns false when the queue
// is full or the loop has stopped.
func (l *Loop) Enqueue(task func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	if !l.buffer.Push(task) {
		l.cfg.Logger.Printf("[loop] dropping task: queue full (%d)", l.buffer.Capacity())
		return false
	}
	return true
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Enqueue(func() {
		defer close(done)
		fn()
	}) {
		select {
		case <-l.stopped:
			return ErrStopped
		default:
			return ErrQueueFull
		}
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// The task may still have run during the final drain.
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// OnTick registers a hook that runs after queued tasks on every tick.
func (l *Loop) OnTick(hook func(tick uint64, now time.Time)) {
	if hook == nil {
		return
	}
	l.hooksMu.Lock()
	l.hooks = append(l.hooks, hook)
	l.hooksMu.Unlock()
}

// Step advances one tick. Run calls it from the ticker; tests call it
// directly.
func (l *Loop) Step(now time.Time) {
	for _, task := range l.buffer.Drain() {
		l.runTask(task)
	}
	tick := l.tick.Add(1)
	l.hooksMu.Lock()
	hooks := slices.Clone(l.hooks)
	l.hooksMu.Unlock()
	for _, hook := range hooks {
		hook(tick, now)
	}
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.cfg.Logger.Printf("[loop] task panicked: %v", rec)
		}
	}()
	task()
}

// Run ticks until ctx is cancelled. Tasks still queued at shutdown are run
// once more before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop already running")
	}
	ticker := time.NewTicker(l.Interval())
	defer ticker.Stop()
	defer l.once.Do(func() { close(l.stopped) })

	for {
		select {
		case <-ctx.Done():
			for _, task := range l.buffer.Drain() {
				l.runTask(task)
			}
			return nil
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	return l.buffer.Len()
}
