package datastore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger routes gorm's logging through the module logger.
type GormLogger struct {
	log           logger.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger creates a gorm logger writing to log.
func NewGormLogger(log logger.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{log: log, level: level, slowThreshold: defaultSlowThreshold}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.log.WithContext(ctx).Debug(fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.log.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.log.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	log := l.log.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		log.Warn("database query failed",
			logger.String("sql", sql),
			logger.Int64("rows_affected", rows),
			logger.Int64("duration_ms", elapsed.Milliseconds()),
			logger.Error(err))
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		log.Warn("slow query detected",
			logger.String("sql", sql),
			logger.Int64("rows_affected", rows),
			logger.Int64("duration_ms", elapsed.Milliseconds()))
	case l.level >= gormlogger.Info:
		log.Trace("query executed",
			logger.String("sql", sql),
			logger.Int64("rows_affected", rows),
			logger.Int64("duration_ms", elapsed.Milliseconds()))
	}
}
