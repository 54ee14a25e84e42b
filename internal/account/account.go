// Package account implements registration, activation, login and password
// management for back-office users.
package account

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/internal/utils/ptr"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/users"
)

var loginPattern = regexp.MustCompile(`^[_.@A-Za-z0-9-]+$`)

// UserStore is the account persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, user *users.User) error
	FindByLogin(ctx context.Context, login string) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByActivationKey(ctx context.Context, key string) (*users.User, error)
	FindByResetKey(ctx context.Context, key string) (*users.User, error)
	Update(ctx context.Context, user *users.User) error
	List(ctx context.Context, page store.Page) ([]users.User, int64, error)
}

// Service manages accounts.
type Service struct {
	users    UserStore
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	notifier Notifier
	now      func() time.Time
}

// New creates a Service. A nil notifier logs keys instead of sending them.
func New(userStore UserStore, tokens *auth.TokenManager, hasher *auth.PasswordHasher, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		users:    userStore,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		now:      time.Now,
	}
}

// Registration is the data a user supplies to sign up.
type Registration struct {
	Login     string `json:"login"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
	LangKey   string `json:"langKey"`
}

// Profile is the part of an account its owner may change.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
	LangKey   string `json:"langKey"`
}

// NewUser describes an account created by an operator.
type NewUser struct {
	Login    string
	Email    string
	Password string
	Admin    bool
}

// Authenticate checks credentials and returns a signed token.
func (s *Service) Authenticate(ctx context.Context, login, password string, rememberMe bool) (string, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", errors.NewAuthenticationError(login, "password", "bad credentials", nil)
		}
		return "", err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", errors.NewAuthenticationError(login, "password", "bad credentials", nil)
	}
	if !user.Activated {
		return "", errors.NewAuthenticationError(login, "password", "user was not activated", nil)
	}

	token, err := s.tokens.Issue(user.Login, user.AuthorityNames(), rememberMe)
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Debug().Str("login", user.Login).Bool("remember_me", rememberMe).Msg("User authenticated")
	return token, nil
}

// Register creates an inactive user and sends its activation key.
func (s *Service) Register(ctx context.Context, reg Registration) (*users.User, error) {
	if err := validatePassword("password", reg.Password); err != nil {
		return nil, err
	}
	user, err := s.newUser(reg.Login, reg.Email, reg.Password, users.RoleUser)
	if err != nil {
		return nil, err
	}
	user.FirstName = reg.FirstName
	user.LastName = reg.LastName
	user.ImageURL = reg.ImageURL
	if reg.LangKey != "" {
		user.LangKey = reg.LangKey
	}
	user.ActivationKey = ptr.String(uuid.NewString())

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().Str("login", user.Login).Msg("User registered")

	if err := s.notifier.SendActivation(ctx, user); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("login", user.Login).Msg("Failed to send activation")
	}
	return user, nil
}

// Activate activates the user holding key.
func (s *Service) Activate(ctx context.Context, key string) (*users.User, error) {
	if key == "" {
		return nil, errors.NewNotFoundError("activation key", key)
	}
	user, err := s.users.FindByActivationKey(ctx, key)
	if err != nil {
		return nil, err
	}
	user.Activated = true
	user.ActivationKey = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info().Str("login", user.Login).Msg("User activated")
	return user, nil
}

// Current loads the account of login.
func (s *Service) Current(ctx context.Context, login string) (*users.User, error) {
	return s.users.FindByLogin(ctx, login)
}

// UpdateProfile changes the editable fields of login's account.
func (s *Service) UpdateProfile(ctx context.Context, login string, profile Profile) (*users.User, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.Email = email
	user.ImageURL = profile.ImageURL
	if profile.LangKey != "" {
		user.LangKey = profile.LangKey
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces login's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, login, current, next string) error {
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return errors.NewValidationError("currentPassword", nil, "incorrect password")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// RequestPasswordReset issues a reset key for the activated user with
// email. Unknown emails are logged and otherwise ignored.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	logger := logging.FromContext(ctx)
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Warn().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.Activated {
		logger.Warn().Str("login", user.Login).Msg("Password reset requested for inactive user")
		return nil
	}

	user.ResetKey = ptr.String(uuid.NewString())
	user.ResetDate = ptr.Time(s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, user); err != nil {
		logger.Warn().Err(err).Str("login", user.Login).Msg("Failed to send password reset")
	}
	return nil
}

// FinishPasswordReset sets a new password for the holder of a reset key
// issued less than a day ago.
func (s *Service) FinishPasswordReset(ctx context.Context, key, next string) error {
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}
	user, err := s.users.FindByResetKey(ctx, key)
	if err != nil {
		return err
	}
	if user.ResetDate == nil || s.now().Sub(*user.ResetDate) > constants.ResetKeyValidity {
		return errors.NewNotFoundError("reset key", key)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ResetKey = nil
	user.ResetDate = nil
	return s.users.Update(ctx, user)
}

// CreateUser creates an activated account, optionally with the admin role.
func (s *Service) CreateUser(ctx context.Context, nu NewUser) (*users.User, error) {
	if err := validatePassword("password", nu.Password); err != nil {
		return nil, err
	}
	authorities := []string{users.RoleUser}
	if nu.Admin {
		authorities = append(authorities, users.RoleAdmin)
	}
	user, err := s.newUser(nu.Login, nu.Email, nu.Password, authorities...)
	if err != nil {
		return nil, err
	}
	user.Activated = true
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, page store.Page) ([]users.User, int64, error) {
	return s.users.List(ctx, page)
}

func (s *Service) newUser(login, email, password string, authorities ...string) (*users.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || len(login) > 50 || !loginPattern.MatchString(login) {
		return nil, errors.NewValidationError("login", login, "must be 1 to 50 letters, digits or _.@-")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		LangKey:      constants.DefaultLangKey,
	}
	for _, a := range authorities {
		user.Authorities = append(user.Authorities, users.Authority{Name: a})
	}
	return user, nil
}

func validatePassword(field, password string) error {
	n := utf8.RuneCountInString(password)
	if n < constants.PasswordMinLength || n > constants.PasswordMaxLength {
		return errors.NewValidationError(field, nil, "password must be between 4 and 100 characters")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.NewValidationError("email", email, "invalid email address")
	}
	return email, nil
}
