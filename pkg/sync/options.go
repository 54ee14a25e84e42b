// Package sync describes catalog sync runs: the options a run accepts and
// the record it leaves behind.
package sync

import (
	"time"

	"github.com/agentstation/storefront/pkg/errors"
)

// Trigger names what started a run.
type Trigger string

// Run triggers.
const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Options controls a single sync run.
type Options struct {
	DryRun  bool          // Classify devices without writing them
	Timeout time.Duration // Upper bound for the run, zero means no extra bound
	Trigger Trigger       // Recorded on the run for logs and status
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:  false,
		Timeout: 0,
		Trigger: TriggerManual,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	switch s.Trigger {
	case TriggerScheduled, TriggerManual:
	default:
		return &errors.ValidationError{
			Field:   "Trigger",
			Value:   s.Trigger,
			Message: "unknown trigger",
		}
	}
	return nil
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the run timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithTrigger records what started the run.
func WithTrigger(trigger Trigger) Option {
	return func(opts *Options) {
		opts.Trigger = trigger
	}
}
