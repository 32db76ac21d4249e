package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/database/schema"
	"github.com/william251082/fileupload/logger"
)

// Config returns an in-memory SQLite configuration with a private database
// name. The pool is pinned to one connection that never expires, since an
// in-memory database lives only as long as its connection.
func Config() database.Config {
	return database.Config{
		Driver:          database.DriverSQLite,
		DSN:             fmt.Sprintf("file:test-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 24 * time.Hour,
		MaxRetries:      1,
		LogLevel:        "silent",
	}
}

// Open returns a migrated in-memory database closed at the end of the test.
func Open(t testing.TB) *database.DB {
	t.Helper()
	cfg := Config()
	db, err := database.Open(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := schema.Up(db, cfg); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
