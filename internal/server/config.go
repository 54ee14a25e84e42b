package server

import (
	"net"
	"strconv"
	"time"

	"github.com/agentstation/storefront/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// PathPrefix mounts every route below a prefix, e.g. "/storefront".
	PathPrefix string `mapstructure:"path_prefix"`

	// CORS settings
	CORSEnabled bool     `mapstructure:"cors_enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Performance settings
	RateLimit int           `mapstructure:"rate_limit"` // Requests per minute per IP (0 to disable)
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// HTTP timeouts. WriteTimeout of 0 leaves event streams open.
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// SyncTimeout bounds a sync cycle triggered through the admin API.
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`

	// Features
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "",
		CORSEnabled:    false,
		CORSOrigins:    []string{},
		RateLimit:      constants.DefaultRateLimit,
		CacheTTL:       constants.CacheTTL,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   0,
		IdleTimeout:    120 * time.Second,
		SyncTimeout:    2 * time.Minute,
		MetricsEnabled: true,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
