// Package store persists the back-office entities in SQLite through gorm.
package store

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agentstation/storefront/pkg/catalog"
	pkgerrors "github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
	"github.com/agentstation/storefront/pkg/sales"
	"github.com/agentstation/storefront/pkg/users"
)

// Config configures the database connection.
type Config struct {
	// Path is the SQLite file, or ":memory:" for a private in-memory database.
	Path string `mapstructure:"path"`

	// Debug logs every SQL statement at debug level.
	Debug bool `mapstructure:"debug"`
}

// Store owns the database handle and the per-entity repositories.
type Store struct {
	db *gorm.DB

	Devices        *Devices
	Features       *Table[catalog.Feature]
	Customizations *Table[catalog.Customization]
	Options        *Table[catalog.Option]
	AddOns         *Table[catalog.AddOn]
	Sales          *Sales
	Users          *Users
}

// Open connects to the database, migrates the schema and seeds the
// authorities.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, pkgerrors.NewConfigError("database", "path is required", nil)
	}

	db, err := gorm.Open(sqlite.Open(dsn(cfg.Path)), &gorm.Config{
		Logger:         newGormLogger(cfg.Debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, pkgerrors.WrapStore("open", "database", cfg.Path, err)
	}

	if cfg.Path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, pkgerrors.WrapStore("open", "database", cfg.Path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	logging.FromContext(ctx).Debug().Str("path", cfg.Path).Msg("Database ready")
	return s, nil
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Devices:        &Devices{db: db},
		Features:       NewTable[catalog.Feature](db, "feature"),
		Customizations: NewTable[catalog.Customization](db, "customization", WithPreload("Options"), WithCascade(deleteCustomizationOptions)),
		Options:        NewTable[catalog.Option](db, "option"),
		AddOns:         NewTable[catalog.AddOn](db, "add-on", WithCascade(deleteAddOnLinks)),
		Sales:          &Sales{db: db},
		Users:          &Users{db: db},
	}
}

// Migrate creates or updates the schema and seeds the authorities.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&catalog.Device{},
		&catalog.Feature{},
		&catalog.Customization{},
		&catalog.Option{},
		&catalog.AddOn{},
		&users.Authority{},
		&users.User{},
		&sales.Sale{},
	); err != nil {
		return pkgerrors.WrapStore("migrate", "schema", "", err)
	}

	for _, name := range []string{users.RoleAdmin, users.RoleUser} {
		if err := db.FirstOrCreate(&users.Authority{Name: name}).Error; err != nil {
			return pkgerrors.WrapStore("seed", "authority", name, err)
		}
	}
	return nil
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

// Page selects a slice of a listing. Number is zero based.
type Page struct {
	Number int
	Size   int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Offset(p.Number * p.Size).Limit(p.Size)
}

// translate maps gorm errors onto the storefront taxonomy.
func translate(operation, resource string, id int64, err error) error {
	if err == nil {
		return nil
	}
	idStr := ""
	if id != 0 {
		idStr = strconv.FormatInt(id, 10)
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.NewNotFoundError(resource, idStr)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return pkgerrors.NewAlreadyExistsError(resource, "id", idStr)
	default:
		return pkgerrors.WrapStore(operation, resource, idStr, err)
	}
}
