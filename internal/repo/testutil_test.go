package repo

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "studyforge",
		Password: "studyforge_pass",
		DBName:   "studyforge_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() {
		for _, table := range []string{"documents", "file_artifacts", "usage_ledger", "shared_counters"} {
			_, _ = conn.Exec(fmt.Sprintf("DELETE FROM %s", table))
		}
		_ = conn.Close()
	})
	return conn
}
