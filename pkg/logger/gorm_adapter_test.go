package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"
)

func messages(logs *observer.ObservedLogs) []string {
	out := make([]string, 0, logs.Len())
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func TestGormLoggerAdapterLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     logger.LogLevel
		wantInfo  bool
		wantTrace bool
	}{
		{"warn", logger.Warn, false, false},
		{"info", logger.Info, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			restore := Replace(zap.New(core))
			defer restore()

			adapter := NewGormLoggerAdapter(tt.level)
			ctx := context.Background()
			adapter.Info(ctx, "info %d", 1)
			adapter.Warn(ctx, "warn %d", 2)
			adapter.Error(ctx, "error %d", 3)
			adapter.Trace(ctx, time.Now(), func() (string, int64) {
				return "SELECT * FROM products", 1
			}, nil)

			got := messages(logs)
			assert.Equal(t, tt.wantInfo, contains(got, "info 1"))
			assert.Contains(t, got, "warn 2")
			assert.Contains(t, got, "error 3")
			assert.Equal(t, tt.wantTrace, contains(got, "SQL query executed"))
		})
	}
}

func TestGormLoggerAdapterResolvesGlobalLazily(t *testing.T) {
	restore := Replace(nil)
	defer restore()

	adapter := NewGormLoggerAdapter(logger.Info)

	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))

	adapter.Info(context.Background(), "after init")
	require.Equal(t, 1, logs.Len())
}

func TestGormLoggerAdapterSlowQueryCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	adapter := NewGormLoggerAdapterWithConfig(logger.Warn, &GormLoggerConfig{SlowThreshold: time.Millisecond})
	ctx := ContextWithRequestID(context.Background(), "req-123")

	adapter.Trace(ctx, time.Now().Add(-10*time.Millisecond), func() (string, int64) {
		return "SELECT * FROM orders", 3
	}, nil)

	entries := logs.FilterMessage("Slow SQL query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "SELECT * FROM orders", entries[0].ContextMap()["sql"])
}

func TestGormLoggerAdapterRecordNotFound(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	notFound := func() (string, int64) { return "SELECT * FROM carts WHERE user_id = 'x'", 0 }

	quiet := NewGormLoggerAdapter(logger.Error)
	quiet.Trace(context.Background(), time.Now(), notFound, logger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())

	loud := NewGormLoggerAdapterWithConfig(logger.Error, &GormLoggerConfig{})
	loud.Trace(context.Background(), time.Now(), notFound, logger.ErrRecordNotFound)
	loud.Trace(context.Background(), time.Now(), notFound, errors.New("boom"))
	assert.Equal(t, 2, logs.FilterMessage("Database operation failed").Len())
}

func TestGormLoggerAdapterSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewGormLoggerAdapter(logger.Info).WithLogger(zap.New(core))

	silent := adapter.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) {
		t.Fatal("sql callback should not run when silent")
		return "", 0
	}, errors.New("ignored"))
	assert.Zero(t, logs.Len())
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
