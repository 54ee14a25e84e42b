package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agentstation/storefront/pkg/logging"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes gorm's logging through the context logger.
type gormLogger struct {
	level logger.LogLevel
}

func newGormLogger(debug bool) logger.Interface {
	if debug {
		return &gormLogger{level: logger.Info}
	}
	return &gormLogger{level: logger.Warn}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		logging.FromContext(ctx).Info().Msgf(msg, args...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		logging.FromContext(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		logging.FromContext(ctx).Error().Msgf(msg, args...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	log := logging.FromContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		sql, rows := fc()
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query failed")
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Slow query")
	case l.level >= logger.Info:
		sql, rows := fc()
		log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("Query")
	}
}
