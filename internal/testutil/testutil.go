package testutil

import (
	"testing"

	"cybercase/internal/database"
	"cybercase/internal/webconfig"

	"github.com/glebarez/sqlite"
)

// Bootstrap credentials seeded by SetupTestDB.
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
)

// SetupTestDB creates an in-memory SQLite database with the full schema and
// the bootstrap admin, and installs it as database.DB.
// It returns a cleanup function that should be called after the test.
func SetupTestDB(t *testing.T) func() {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), false)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Every new connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = database.InitSchema(db, database.BootstrapAdmin{
		Username: AdminUsername,
		Password: AdminPassword,
		FullName: "System Administrator",
	})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	database.DB = db

	return func() {
		sqlDB.Close()
		database.DB = nil
	}
}

// TestConfig returns a test configuration
func TestConfig() *webconfig.Config {
	cfg := webconfig.Default()
	cfg.Auth.JWTSecret = "test-secret-key-for-unit-tests"
	cfg.Auth.JWTExpire = "24h"
	return &cfg
}
