package account

import (
	"context"

	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/users"
)

// Notifier delivers one-time account keys to users.
type Notifier interface {
	SendActivation(ctx context.Context, user *users.User) error
	SendPasswordReset(ctx context.Context, user *users.User) error
}

// LogNotifier writes keys to the log.
type LogNotifier struct{}

// SendActivation implements Notifier.
func (LogNotifier) SendActivation(ctx context.Context, user *users.User) error {
	logging.FromContext(ctx).Info().
		Str("login", user.Login).
		Str("email", user.Email).
		Str("activation_key", ptr.Deref(user.ActivationKey)).
		Msg("Activation key issued")
	return nil
}

// SendPasswordReset implements Notifier.
func (LogNotifier) SendPasswordReset(ctx context.Context, user *users.User) error {
	logging.FromContext(ctx).Info().
		Str("login", user.Login).
		Str("email", user.Email).
		Str("reset_key", ptr.Deref(user.ResetKey)).
		Msg("Password reset key issued")
	return nil
}
