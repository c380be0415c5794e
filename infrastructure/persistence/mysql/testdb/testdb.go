// Package testdb opens migrated in-memory sqlite databases for tests.
package testdb

import (
	"fmt"
	"testing"

	"marketplace/infrastructure/persistence/mysql"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns a fresh migrated database private to t. The pool holds a single
// connection, so a test must not read outside a transaction it has left open.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &mysql.Config{
		Driver:   mysql.DriverSQLite,
		Database: fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
		LogLevel: "silent",
	}
	db, err := cfg.Connect()
	require.NoError(t, err)
	require.NoError(t, mysql.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
