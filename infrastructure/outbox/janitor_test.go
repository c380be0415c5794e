package outbox_test

import (
	"context"
	"testing"
	"time"

	"marketplace/infrastructure/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJanitorValidation(t *testing.T) {
	store := newMemoryStore()

	_, err := outbox.NewJanitor(nil, "", time.Hour)
	assert.Error(t, err)

	_, err = outbox.NewJanitor(store, "not a cron", time.Hour)
	assert.Error(t, err)

	_, err = outbox.NewJanitor(store, "", 0)
	assert.Error(t, err)

	j, err := outbox.NewJanitor(store, "", time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, j)
}

func TestJanitorPurge(t *testing.T) {
	store := newMemoryStore()
	now := time.Now().UTC()
	store.processed["old"] = now.Add(-48 * time.Hour)
	store.processed["fresh"] = now.Add(-time.Hour)

	j, err := outbox.NewJanitor(store, "", 24*time.Hour)
	require.NoError(t, err)

	deleted, err := j.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Contains(t, store.processed, "fresh")
	assert.WithinDuration(t, now.Add(-24*time.Hour), store.purged, time.Minute)
}

func TestJanitorRunsOnSchedule(t *testing.T) {
	store := newMemoryStore()
	store.processed["old"] = time.Now().UTC().Add(-48 * time.Hour)

	j, err := outbox.NewJanitor(store, "* * * * * *", 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, j.Start(context.Background()))
	defer j.Stop()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.processed) == 0
	}, 3*time.Second, 50*time.Millisecond)
}
