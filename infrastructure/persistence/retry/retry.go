// Package retry re-runs a whole unit of work when it loses an optimistic
// version check or hits a transient lock error.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"marketplace/config"
	"marketplace/domain/shared"
	"marketplace/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

type Config struct {
	Enabled                       bool
	MaxAttempts                   int
	InitialDelay                  time.Duration
	MaxDelay                      time.Duration
	BackoffFactor                 float64
	JitterEnabled                 bool
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool
	RetryPredicate                func(error) bool
}

var DefaultConfig = Config{
	Enabled:                       true,
	MaxAttempts:                   3,
	InitialDelay:                  100 * time.Millisecond,
	MaxDelay:                      2 * time.Second,
	BackoffFactor:                 2.0,
	JitterEnabled:                 true,
	RetryOnConcurrentModification: true,
	RetryOnDeadlock:               true,
	RetryOnLockTimeout:            true,
}

func FromAppConfig(appConfig *config.Config) Config {
	r := appConfig.Database.Retry
	return Config{
		Enabled:                       r.Enabled,
		MaxAttempts:                   r.MaxAttempts,
		InitialDelay:                  r.InitialDelay,
		MaxDelay:                      r.MaxDelay,
		BackoffFactor:                 r.BackoffFactor,
		JitterEnabled:                 r.JitterEnabled,
		RetryOnConcurrentModification: r.RetryOnConcurrentModification,
		RetryOnDeadlock:               r.RetryOnDeadlock,
		RetryOnLockTimeout:            r.RetryOnLockTimeout,
	}
}

// ExponentialBackoffWithJitter returns the pause before the attempt after
// the given one, capped at MaxDelay and scattered by ±20% when jitter is on.
func ExponentialBackoffWithJitter(attempt int, config Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(factor, float64(attempt-1))
	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if config.JitterEnabled {
		delay *= 0.8 + rand.Float64()*0.4
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func IsRetryableError(err error, config Config) bool {
	if err == nil {
		return false
	}
	if config.RetryPredicate != nil && config.RetryPredicate(err) {
		return true
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return config.RetryOnConcurrentModification
	}
	// Other domain errors are final whatever text their cause carries.
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return false
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDeadlock:
			return config.RetryOnDeadlock
		case mysqlLockWaitTimeout:
			return config.RetryOnLockTimeout
		}
		return false
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "deadlock") {
		return config.RetryOnDeadlock
	}
	if strings.Contains(errStr, "lock wait timeout") || strings.Contains(errStr, "database is locked") {
		return config.RetryOnLockTimeout
	}
	return false
}

// ExecuteWithRetry runs fn until it succeeds, returns a non-retryable error,
// or MaxAttempts is used up. fn must open and close its own unit of work.
func ExecuteWithRetry(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	if !config.Enabled || config.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryableError(err, config) || attempt == config.MaxAttempts {
			break
		}

		delay := ExponentialBackoffWithJitter(attempt, config)
		logger.FromContext(ctx).Warn("retrying after transient failure",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", config.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return lastErr
}

func ExecuteWithAppConfig(ctx context.Context, appConfig *config.Config, fn func(ctx context.Context) error) error {
	return ExecuteWithRetry(ctx, FromAppConfig(appConfig), fn)
}
