// Package dbtest provides throwaway databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/fundtrack/fundtrack/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database private to the test.
// The pool is limited to one connection so every query sees the same
// in-memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	conn, err := db.ConnectDatabase("sqlite", dsn)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.MigrateDatabase(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return conn
}
