// Package scheduler runs a job once at start and then on a fixed-rate
// ticker until stopped.
package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler owns the timing of a Job. Runs never overlap: a tick that
// arrives while a run is in flight is skipped.
type Scheduler struct {
	job        Job
	interval   time.Duration
	runTimeout time.Duration
	name       string
	onError    func(err error)
	onSkip     func()

	mu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithInterval sets the time between ticks.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) error {
		if d <= 0 {
			return &errors.ValidationError{
				Field:   "interval",
				Value:   d,
				Message: "update interval must be positive",
			}
		}
		s.interval = d
		return nil
	}
}

// WithRunTimeout bounds each run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) error {
		if d < 0 {
			return &errors.ValidationError{
				Field:   "run_timeout",
				Value:   d,
				Message: "run timeout must be non-negative",
			}
		}
		s.runTimeout = d
		return nil
	}
}

// WithName labels the scheduler in logs.
func WithName(name string) Option {
	return func(s *Scheduler) error {
		s.name = name
		return nil
	}
}

// WithErrorHandler is called with every error a run returns, after logging.
func WithErrorHandler(fn func(err error)) Option {
	return func(s *Scheduler) error {
		s.onError = fn
		return nil
	}
}

// WithSkipHandler is called whenever a tick is skipped.
func WithSkipHandler(fn func()) Option {
	return func(s *Scheduler) error {
		s.onSkip = fn
		return nil
	}
}

// New creates a Scheduler for job.
func New(job Job, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, &errors.ValidationError{Field: "job", Message: "cannot be nil"}
	}
	s := &Scheduler{
		job:        job,
		interval:   constants.DefaultSyncInterval,
		runTimeout: constants.SyncRunTimeout,
		name:       "scheduler",
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Interval returns the tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Handle controls a started scheduler loop.
type Handle struct {
	cancelLoop context.CancelFunc
	cancelRuns context.CancelFunc
	done       chan struct{}
	runs       sync.WaitGroup
	stopOnce   sync.Once
}

// Start runs the job immediately and then once per interval until ctx is
// cancelled or the returned handle is stopped.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	loopCtx, cancelLoop := context.WithCancel(ctx)
	// Runs outlive the loop until Stop gives up waiting for them.
	runCtx, cancelRuns := context.WithCancel(context.WithoutCancel(ctx))

	h := &Handle{
		cancelLoop: cancelLoop,
		cancelRuns: cancelRuns,
		done:       make(chan struct{}),
	}

	logger := logging.FromContext(ctx).With().Str("scheduler", s.name).Logger()
	logger.Info().Dur("interval", s.interval).Dur("run_timeout", s.runTimeout).Msg("Scheduler started")

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.trigger(runCtx, h, &logger)
		for {
			select {
			case <-ticker.C:
				s.trigger(runCtx, h, &logger)
			case <-loopCtx.Done():
				logger.Info().Msg("Scheduler stopped")
				return
			}
		}
	}()

	return h
}

// trigger starts a run on its own goroutine unless one is in flight.
func (s *Scheduler) trigger(ctx context.Context, h *Handle, logger *zerolog.Logger) {
	if !s.mu.TryLock() {
		logger.Warn().Msg("Previous run still in flight, skipping tick")
		if s.onSkip != nil {
			s.onSkip()
		}
		return
	}

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		defer s.mu.Unlock()
		s.execute(ctx, logger)
	}()
}

func (s *Scheduler) execute(ctx context.Context, logger *zerolog.Logger) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	start := time.Now()
	err := s.safeRun(ctx)
	switch {
	case err == nil:
		logger.Debug().Dur("duration", time.Since(start)).Msg("Scheduled run finished")
	case stderrors.Is(err, errors.ErrSyncInProgress):
		logger.Info().Msg("Run already in progress, skipping tick")
		if s.onSkip != nil {
			s.onSkip()
		}
	default:
		logger.Error().
			Err(err).
			Str("error_class", errors.Class(err)).
			Dur("duration", time.Since(start)).
			Msg("Scheduled run failed")
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scheduled run panicked: %v", r)
		}
	}()
	return s.job(ctx)
}

// Stop stops further ticks and waits for the in-flight run. If ctx expires
// first, the run's context is cancelled and ctx.Err() is returned.
func (h *Handle) Stop(ctx context.Context) error {
	var err error
	h.stopOnce.Do(func() {
		h.cancelLoop()

		finished := make(chan struct{})
		go func() {
			<-h.done
			h.runs.Wait()
			close(finished)
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			err = ctx.Err()
		}
		h.cancelRuns()
	})
	return err
}

// Done is closed once the scheduling loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
