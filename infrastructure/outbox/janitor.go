package outbox

import (
	"context"
	"fmt"
	"time"

	"marketplace/domain/shared"
	"marketplace/pkg/logger"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// DefaultCleanupCron runs the purge every day at 03:00:00. The schedule has a seconds field.
const DefaultCleanupCron = "0 0 3 * * *"

// Janitor deletes processed outbox rows once they are older than the retention window.
type Janitor struct {
	store     shared.OutboxStore
	spec      string
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

func NewJanitor(store shared.OutboxStore, spec string, retention time.Duration) (*Janitor, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if spec == "" {
		spec = DefaultCleanupCron
	}
	if _, err := cron.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid cleanup cron %q: %w", spec, err)
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}

	return &Janitor{
		store:     store,
		spec:      spec,
		retention: retention,
		cron:      cron.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start schedules the purge. ctx is used for every scheduled run.
func (j *Janitor) Start(ctx context.Context) error {
	err := j.cron.AddFunc(j.spec, func() {
		if _, err := j.Purge(ctx); err != nil {
			logger.Error("Outbox cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule outbox cleanup: %w", err)
	}
	j.cron.Start()
	logger.Info("Outbox janitor started",
		zap.String("cron", j.spec),
		zap.Duration("retention", j.retention),
	)
	return nil
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Purge deletes processed rows older than now minus retention.
func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.store.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("Outbox rows purged",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return deleted, nil
}
