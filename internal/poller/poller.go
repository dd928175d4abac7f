// Package poller keeps REST-backed snapshots fresh while the dashboard is
// authenticated: one loop per task, an immediate fetch on activation, a
// fixed interval after that.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/clock"
	"github.com/workmate-live/dashboard/internal/store"
)

// DefaultInterval is the refresh period for tasks without their own.
const DefaultInterval = 30 * time.Second

// ErrStale is returned by a refresh whose result was discarded because
// its activation ended or its snapshot was cleared while it was in flight.
var ErrStale = errors.New("refresh result is stale")

// Refresh fetches one resource and writes it to its snapshot.
type Refresh func(ctx context.Context) error

// Task is one independently scheduled refresh.
type Task struct {
	Name     string
	Interval time.Duration
	Refresh  Refresh
}

// ErrorFunc receives every refresh failure except ErrStale and context
// cancellation. It runs on the task's goroutine and must not call
// Deactivate synchronously.
type ErrorFunc func(task string, err error)

// Controller runs a fixed set of tasks. An activation is a generation:
// Deactivate cancels its context and waits for every loop to return, so
// no write from that generation lands afterwards.
type Controller struct {
	tasks    []Task
	clock    clock.Clock
	log      *zap.Logger
	interval time.Duration
	onError  ErrorFunc

	mu       sync.Mutex
	active   bool
	cancel   context.CancelFunc
	triggers map[string]chan struct{}
	wg       sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clock.Clock) Option { return func(p *Controller) { p.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(p *Controller) { p.log = l } }

// WithInterval sets the period for tasks whose Interval is zero.
func WithInterval(d time.Duration) Option { return func(p *Controller) { p.interval = d } }

func WithErrorHandler(fn ErrorFunc) Option { return func(p *Controller) { p.onError = fn } }

// New creates an inactive controller.
func New(tasks []Task, opts ...Option) *Controller {
	p := &Controller{
		tasks:    tasks,
		clock:    clock.Real(),
		log:      zap.NewNop(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("poller")
	return p
}

// Active reports whether loops are running.
func (p *Controller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Activate starts every task loop. Each task fetches immediately. Calling
// Activate while active is a no-op.
func (p *Controller) Activate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.active = true
	p.cancel = cancel
	p.triggers = make(map[string]chan struct{}, len(p.tasks))

	for _, t := range p.tasks {
		trig := make(chan struct{}, 1)
		p.triggers[t.Name] = trig
		interval := t.Interval
		if interval <= 0 {
			interval = p.interval
		}
		ticker := p.clock.NewTicker(interval)
		p.wg.Add(1)
		go p.loop(ctx, t, ticker, trig)
	}
	p.log.Debug("polling activated", zap.Int("tasks", len(p.tasks)), zap.Duration("interval", p.interval))
}

// Deactivate stops every loop and waits for in-flight refreshes to return.
// Idempotent.
func (p *Controller) Deactivate() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.cancel()
	p.cancel = nil
	p.triggers = nil
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Debug("polling deactivated")
}

// Trigger requests an out-of-band refresh of the named task, or of every
// task when name is empty. Requests coalesce while one is pending. No-op
// when inactive or when name is unknown.
func (p *Controller) Trigger(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for n, trig := range p.triggers {
		if name != "" && n != name {
			continue
		}
		select {
		case trig <- struct{}{}:
		default:
		}
	}
}

func (p *Controller) loop(ctx context.Context, t Task, ticker *clock.Ticker, trig <-chan struct{}) {
	defer p.wg.Done()
	defer ticker.Stop()

	p.run(ctx, t)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx, t)
		case <-trig:
			p.run(ctx, t)
		}
	}
}

func (p *Controller) run(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	err := t.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrStale), ctx.Err() != nil:
		p.log.Debug("refresh discarded", zap.String("task", t.Name), zap.Error(err))
	default:
		p.log.Warn("refresh failed, keeping previous value", zap.String("task", t.Name), zap.Error(err))
		if p.onError != nil {
			p.onError(t.Name, err)
		}
	}
}

// Into builds a Refresh that fetches a V and folds it into snap with rule.
// The snapshot epoch is read before the fetch, so a result that arrives
// after the snapshot was cleared, or after the activation ended, is
// discarded with ErrStale.
func Into[T, V any](snap *store.Snapshot[T], fetch func(context.Context) (V, error), rule func(T, V) T) Refresh {
	return func(ctx context.Context) error {
		epoch := snap.Epoch()
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ErrStale
		}
		if !snap.MergeAt(epoch, func(cur T) T { return rule(cur, v) }) {
			return ErrStale
		}
		return nil
	}
}

// Replace is Into with a rule that discards the current value.
func Replace[T any](snap *store.Snapshot[T], fetch func(context.Context) (T, error)) Refresh {
	return Into(snap, fetch, func(_ T, v T) T { return v })
}
