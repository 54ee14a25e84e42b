// Package sync runs catalog sync cycles: load the upstream token, fetch the
// device list, and reconcile it into the local store.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/storefront/internal/token"
	"github.com/agentstation/storefront/pkg/catalog"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/reconciler"
	syncpkg "github.com/agentstation/storefront/pkg/sync"
)

// DeviceSource fetches the authoritative device list.
type DeviceSource interface {
	Devices(ctx context.Context, token string) ([]catalog.Device, error)
}

// Observer is notified when a run starts and again when it finishes.
type Observer func(run syncpkg.Run)

// Syncer executes sync cycles. At most one cycle runs at a time; callers
// arriving while one is in flight get errors.ErrSyncInProgress.
type Syncer struct {
	tokens    token.Source
	source    DeviceSource
	store     reconciler.DeviceStore
	hooks     *reconciler.Hooks
	mu        sync.RWMutex
	observers []Observer

	inFlight chan struct{}
	last     atomic.Pointer[syncpkg.Run]
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithHooks sets the device hooks fired during reconciliation.
func WithHooks(hooks *reconciler.Hooks) Option {
	return func(s *Syncer) {
		if hooks != nil {
			s.hooks = hooks
		}
	}
}

// WithObserver registers a run observer.
func WithObserver(fn Observer) Option {
	return func(s *Syncer) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// New creates a Syncer.
func New(tokens token.Source, source DeviceSource, store reconciler.DeviceStore, opts ...Option) (*Syncer, error) {
	switch {
	case tokens == nil:
		return nil, &errors.ValidationError{Field: "tokens", Message: "cannot be nil"}
	case source == nil:
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	case store == nil:
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}

	s := &Syncer{
		tokens:   tokens,
		source:   source,
		store:    store,
		hooks:    reconciler.NewHooks(),
		inFlight: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Hooks returns the device hooks, for registering more callbacks.
func (s *Syncer) Hooks() *reconciler.Hooks {
	return s.hooks
}

// Observe registers a run observer after construction.
func (s *Syncer) Observe(fn Observer) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Running reports whether a cycle is in flight.
func (s *Syncer) Running() bool {
	return len(s.inFlight) > 0
}

// Last returns the most recent run, which may still be running.
func (s *Syncer) Last() (syncpkg.Run, bool) {
	run := s.last.Load()
	if run == nil {
		return syncpkg.Run{}, false
	}
	return *run, true
}

// Run executes one sync cycle. The returned run is non-nil whenever the
// cycle started, including when it failed.
func (s *Syncer) Run(ctx context.Context, opts ...syncpkg.Option) (*syncpkg.Run, error) {
	options := syncpkg.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	select {
	case s.inFlight <- struct{}{}:
	default:
		return nil, errors.ErrSyncInProgress
	}
	defer func() { <-s.inFlight }()

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	run := &syncpkg.Run{
		ID:        uuid.NewString(),
		Trigger:   options.Trigger,
		Status:    syncpkg.StatusRunning,
		DryRun:    options.DryRun,
		StartTime: time.Now(),
	}
	ctx = logging.WithSyncRun(ctx, run.ID)
	logger := logging.FromContext(ctx)
	logger.Info().Str("trigger", string(run.Trigger)).Bool("dry_run", run.DryRun).Msg("Sync started")
	s.publish(run)

	err := s.cycle(ctx, run, options)

	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime)
	if err != nil {
		run.Status = syncpkg.StatusFailed
		run.Error = err.Error()
		run.ErrorClass = errors.Class(err)
		logger.Error().
			Err(err).
			Str("error_class", run.ErrorClass).
			Dur("duration", run.Duration).
			Msg("Sync failed")
	} else {
		run.Status = syncpkg.StatusSucceeded
		logger.Info().
			Int("fetched", run.Fetched).
			Int("added", run.Added).
			Int("updated", run.Updated).
			Int("unchanged", run.Unchanged).
			Int("invalid", run.Invalid).
			Dur("duration", run.Duration).
			Msg("Sync completed")
	}
	s.publish(run)

	return run, err
}

func (s *Syncer) cycle(ctx context.Context, run *syncpkg.Run, options *syncpkg.Options) error {
	tok, err := s.tokens.Token()
	if err != nil {
		return err
	}

	devices, err := s.source.Devices(ctx, tok)
	if err != nil {
		return err
	}
	run.Fetched = len(devices)

	rec, err := reconciler.New(s.store,
		reconciler.WithHooks(s.hooks),
		reconciler.WithDryRun(options.DryRun),
	)
	if err != nil {
		return err
	}

	result, err := rec.Reconcile(ctx, devices)
	run.Apply(result)
	return err
}

func (s *Syncer) publish(run *syncpkg.Run) {
	snapshot := *run
	s.last.Store(&snapshot)
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}
