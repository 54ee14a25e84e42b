package app

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/server"
	"github.com/agentstation/storefront/internal/store"
	"github.com/agentstation/storefront/internal/upstream"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "STOREFRONT"

// SyncConfig configures scheduled catalog sync.
type SyncConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	RunTimeout time.Duration `mapstructure:"run_timeout"`
}

// Config holds the application configuration loaded from config files,
// environment variables and .env files. Flags are applied afterwards by
// UpdateFromFlags.
type Config struct {
	// Global flags
	Verbose  bool   `mapstructure:"-"`
	Quiet    bool   `mapstructure:"-"`
	NoColor  bool   `mapstructure:"-"`
	Format   string `mapstructure:"-"`
	LogLevel string `mapstructure:"-"` // from --log-level only

	// Config file
	ConfigFile string `mapstructure:"-"`

	Logging  logging.Config  `mapstructure:"logging"`
	Database store.Config    `mapstructure:"database"`
	Upstream upstream.Config `mapstructure:"upstream"`
	Sync     SyncConfig      `mapstructure:"sync"`
	JWT      auth.Config     `mapstructure:"jwt"`
	Server   server.Config   `mapstructure:"server"`
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. STOREFRONT_* environment variables
//  3. .env.local, then .env
//  4. Config file (--config, or ~/.storefront.yaml, or ./.storefront.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapConfig("config", "reading "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(strings.TrimSuffix(constants.DefaultConfigFile, filepath.Ext(constants.DefaultConfigFile)))
		// A missing default config file is fine.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.WrapConfig("config", "reading config file", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapConfig("config", "decoding configuration", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	return config, nil
}

// setDefaults registers every key so that AutomaticEnv can override keys the
// config file does not mention.
func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultConfig()
	v.SetDefault("logging.level", logDefaults.Level)
	v.SetDefault("logging.format", logDefaults.Format)
	v.SetDefault("logging.output", logDefaults.Output)
	v.SetDefault("logging.time_format", logDefaults.TimeFormat)
	v.SetDefault("logging.no_color", logDefaults.NoColor)
	v.SetDefault("logging.caller", false)

	v.SetDefault("database.path", constants.DefaultDatabasePath)
	v.SetDefault("database.debug", false)

	v.SetDefault("upstream.base_url", constants.DefaultUpstreamURL)
	v.SetDefault("upstream.token_file", constants.DefaultTokenFile)
	v.SetDefault("upstream.timeout", constants.DefaultHTTPTimeout)

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval", constants.DefaultSyncInterval)
	v.SetDefault("sync.run_timeout", constants.SyncRunTimeout)

	jwtDefaults := auth.DefaultConfig()
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.validity", jwtDefaults.Validity)
	v.SetDefault("jwt.remember_me_validity", jwtDefaults.RememberMeValidity)
	v.SetDefault("jwt.issuer", jwtDefaults.Issuer)

	srv := server.DefaultConfig()
	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.path_prefix", srv.PathPrefix)
	v.SetDefault("server.cors_enabled", srv.CORSEnabled)
	v.SetDefault("server.cors_origins", srv.CORSOrigins)
	v.SetDefault("server.rate_limit", srv.RateLimit)
	v.SetDefault("server.cache_ttl", srv.CacheTTL)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.idle_timeout", srv.IdleTimeout)
	v.SetDefault("server.sync_timeout", srv.SyncTimeout)
	v.SetDefault("server.metrics_enabled", srv.MetricsEnabled)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides variables already set, so .env.local is loaded first to win
// over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
