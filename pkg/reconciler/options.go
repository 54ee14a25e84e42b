package reconciler

import "github.com/agentstation/storefront/pkg/errors"

type options struct {
	hooks  *Hooks
	dryRun bool
}

func defaultOptions() *options {
	return &options{hooks: NewHooks()}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithHooks registers callbacks fired after each device write.
func WithHooks(hooks *Hooks) Option {
	return func(o *options) error {
		if hooks == nil {
			return &errors.ValidationError{Field: "hooks", Message: "cannot be nil"}
		}
		o.hooks = hooks
		return nil
	}
}

// WithDryRun classifies devices without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(o *options) error {
		o.dryRun = dryRun
		return nil
	}
}
