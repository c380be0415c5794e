/*
Package logger 提供 GORM 到 Zap 的日志适配。
*/
package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type GormLoggerConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

func DefaultGormLoggerConfig() *GormLoggerConfig {
	return &GormLoggerConfig{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
	}
}

// GormLoggerAdapter routes GORM output into zap. A nil logger field means
// the package global is resolved on every call, so Init may run after the
// database connection is opened.
type GormLoggerAdapter struct {
	logLevel logger.LogLevel
	logger   *zap.Logger
	config   *GormLoggerConfig
}

func NewGormLoggerAdapter(logLevel logger.LogLevel) *GormLoggerAdapter {
	return NewGormLoggerAdapterWithConfig(logLevel, DefaultGormLoggerConfig())
}

func NewGormLoggerAdapterWithConfig(logLevel logger.LogLevel, config *GormLoggerConfig) *GormLoggerAdapter {
	if config == nil {
		config = DefaultGormLoggerConfig()
	}
	return &GormLoggerAdapter{logLevel: logLevel, config: config}
}

// WithLogger pins the adapter to l instead of the package global.
func (l *GormLoggerAdapter) WithLogger(z *zap.Logger) *GormLoggerAdapter {
	return &GormLoggerAdapter{logLevel: l.logLevel, logger: z, config: l.config}
}

func (l *GormLoggerAdapter) LogMode(logLevel logger.LogLevel) logger.Interface {
	return &GormLoggerAdapter{logLevel: logLevel, logger: l.logger, config: l.config}
}

func (l *GormLoggerAdapter) forContext(ctx context.Context) *zap.Logger {
	if l.logger == nil {
		return FromContext(ctx).WithOptions(zap.AddCallerSkip(3))
	}
	return l.logger
}

func (l *GormLoggerAdapter) Info(ctx context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Info {
		l.forContext(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Warn(ctx context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Warn {
		l.forContext(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Error(ctx context.Context, msg string, args ...any) {
	if l.logLevel >= logger.Error {
		l.forContext(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := l.forContext(ctx)

	switch {
	case err != nil && l.logLevel >= logger.Error:
		if errors.Is(err, logger.ErrRecordNotFound) && l.config.IgnoreRecordNotFoundError {
			return
		}
		sql, rows := fc()
		log.Error("Database operation failed",
			zap.String("sql", sql), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.Error(err))
	case l.config.SlowThreshold != 0 && elapsed > l.config.SlowThreshold && l.logLevel >= logger.Warn:
		sql, rows := fc()
		log.Warn("Slow SQL query",
			zap.String("sql", sql), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows),
			zap.Duration("threshold", l.config.SlowThreshold))
	case l.logLevel >= logger.Info:
		sql, rows := fc()
		log.Info("SQL query executed", zap.String("sql", sql), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows))
	}
}
