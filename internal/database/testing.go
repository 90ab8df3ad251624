package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watsonpaul80/tipping-monster/internal/config"
)

// TestConfigEnv names the variable pointing at the integration test config file.
const TestConfigEnv = "TIPPING_MONSTER_TEST_CONFIG"

// SetupTestDB connects to the integration database, skipping the test when
// none is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv(TestConfigEnv) == "" {
		t.Skipf("%s not set; skipping integration test", TestConfigEnv)
	}

	cfg, err := config.LoadWithDefaults(os.Getenv(TestConfigEnv))
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	if err := db.Close(); err != nil {
		t.Logf("warning: failed to close test database: %v", err)
	}
}

// SetupTestSQLite opens a throwaway SQLite database under t.TempDir.
func SetupTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "settlements.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
