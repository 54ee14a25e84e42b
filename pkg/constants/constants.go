// Package constants provides shared constants used throughout the storefront codebase.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the upstream service
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// SyncRunTimeout bounds a single catalog sync cycle
	SyncRunTimeout = 5 * time.Minute

	// DefaultSyncInterval is the default interval between catalog sync cycles
	DefaultSyncInterval = 15 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown of the server and scheduler
	ShutdownTimeout = 30 * time.Second
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like the upstream token (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants
const (
	// DefaultPageSize is the default number of items per page for paginated results
	DefaultPageSize = 20

	// MaxPageSize is the maximum allowed page size for paginated results
	MaxPageSize = 1000

	// ChannelBufferSize is the default buffer size for event channels
	ChannelBufferSize = 256

	// MaxRequestBodySize caps decoded JSON request bodies (1 MiB)
	MaxRequestBodySize = 1 << 20

	// MaxUpstreamBodySize caps upstream responses (16 MiB)
	MaxUpstreamBodySize = 16 << 20

	// PasswordMinLength and PasswordMaxLength bound account passwords
	PasswordMinLength = 4
	PasswordMaxLength = 100
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute per client IP
	DefaultRateLimit = 100
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached device reads
	CacheTTL = 5 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Account constants
const (
	// TokenValidity is the lifetime of an issued JWT
	TokenValidity = 24 * time.Hour

	// RememberMeTokenValidity is the lifetime of a JWT issued with rememberMe
	RememberMeTokenValidity = 30 * 24 * time.Hour

	// ResetKeyValidity is how long a password reset key stays usable
	ResetKeyValidity = 24 * time.Hour

	// DefaultLangKey is the language assigned to new accounts
	DefaultLangKey = "es"
)

// Default values
const (
	// DefaultUpstreamURL is the base URL of the upstream catalog service
	DefaultUpstreamURL = "http://192.168.194.254:8080/api/catedra"

	// DefaultTokenFile is the JSON file holding the upstream bearer token
	DefaultTokenFile = "token.json"

	// DefaultDatabasePath is the SQLite database file
	DefaultDatabasePath = "storefront.db"

	// DefaultConfigFile is the config file name looked up in the home directory
	DefaultConfigFile = ".storefront.yaml"

	// EnvPrefix prefixes every environment variable read by viper
	EnvPrefix = "STOREFRONT"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"
)
