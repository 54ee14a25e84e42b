package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// Config holds token settings.
type Config struct {
	Secret             string        `mapstructure:"secret"`
	Validity           time.Duration `mapstructure:"validity"`
	RememberMeValidity time.Duration `mapstructure:"remember_me_validity"`
	Issuer             string        `mapstructure:"issuer"`
}

// DefaultConfig returns token settings with the standard validities and no
// secret.
func DefaultConfig() Config {
	return Config{
		Validity:           constants.TokenValidity,
		RememberMeValidity: constants.RememberMeTokenValidity,
		Issuer:             "storefront",
	}
}

// Claims are the JWT claims issued for a login.
type Claims struct {
	Auth string `json:"auth"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS512 tokens.
type TokenManager struct {
	config Config
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. The secret is required.
func NewTokenManager(cfg Config) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.NewConfigError("jwt", "secret is required", nil)
	}
	defaults := DefaultConfig()
	if cfg.Validity <= 0 {
		cfg.Validity = defaults.Validity
	}
	if cfg.RememberMeValidity <= 0 {
		cfg.RememberMeValidity = defaults.RememberMeValidity
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}
	return &TokenManager{config: cfg, now: time.Now}, nil
}

// Issue creates a signed token for login carrying its authorities.
func (m *TokenManager) Issue(login string, authorities []string, rememberMe bool) (string, error) {
	validity := m.config.Validity
	if rememberMe {
		validity = m.config.RememberMeValidity
	}

	now := m.now()
	claims := Claims{
		Auth: joinAuthorities(authorities),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// Verify parses a token and returns its principal.
func (m *TokenManager) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		message := "invalid token"
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			message = "token has expired"
		}
		return nil, errors.NewAuthenticationError("", "jwt", message, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.NewAuthenticationError("", "jwt", "invalid token", nil)
	}

	return &Principal{
		Login:       claims.Subject,
		Authorities: splitAuthorities(claims.Auth),
	}, nil
}
