package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketplace/domain/shared"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	c := DefaultConfig
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 2 * time.Millisecond
	c.JitterEnabled = false
	return c
}

func TestIsRetryableError(t *testing.T) {
	cfg := DefaultConfig
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"conflict", shared.NewConcurrencyConflictError("product", "p-1"), true},
		{"wrapped conflict", fmt.Errorf("checkout: %w", shared.NewConcurrencyConflictError("coupon", "c")), true},
		{"business rule", shared.NewBusinessRuleError("product", "insufficient stock"), false},
		{"mysql deadlock", &mysqlDriver.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &mysqlDriver.MySQLError{Number: 1205}, true},
		{"mysql duplicate", &mysqlDriver.MySQLError{Number: 1062}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"business rule over lock error", shared.WrapBusinessRule("coupon", "failed to apply coupon", errors.New("database is locked")), false},
		{"business rule over conflict", shared.WrapBusinessRule("coupon", "failed to apply coupon", shared.NewConcurrencyConflictError("coupon", "c")), false},
		{"other", errors.New("syntax error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err, cfg))
		})
	}

	cfg.RetryOnConcurrentModification = false
	assert.False(t, IsRetryableError(shared.NewConcurrencyConflictError("product", "p-1"), cfg))
}

func TestExecuteWithRetryRecoversFromConflict(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return shared.NewConcurrencyConflictError("product", "p-1")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return shared.NewBusinessRuleError("cart", "cart is empty")
	})
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return shared.NewConcurrencyConflictError("product", "p-1")
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, DefaultConfig.MaxAttempts, calls)
}

func TestExecuteWithRetryDisabled(t *testing.T) {
	cfg := fastConfig()
	cfg.Enabled = false
	calls := 0
	_ = ExecuteWithRetry(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return shared.NewConcurrencyConflictError("product", "p-1")
	})
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := ExecuteWithRetry(ctx, fastConfig(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestExponentialBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, BackoffFactor: 2}
	assert.Equal(t, time.Duration(0), ExponentialBackoffWithJitter(0, cfg))
	assert.Equal(t, 100*time.Millisecond, ExponentialBackoffWithJitter(1, cfg))
	assert.Equal(t, 200*time.Millisecond, ExponentialBackoffWithJitter(2, cfg))
	assert.Equal(t, 300*time.Millisecond, ExponentialBackoffWithJitter(3, cfg))

	cfg.JitterEnabled = true
	d := ExponentialBackoffWithJitter(1, cfg)
	assert.GreaterOrEqual(t, d, 80*time.Millisecond)
	assert.LessOrEqual(t, d, 120*time.Millisecond)
}
