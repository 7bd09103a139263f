package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/gridline/internal/config"
)

// SetupTestDB connects to the test database, applies the schema, and
// verifies the connection. Connection details come from the
// GRIDLINE_TEST_DB_* environment variables.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := testDatabaseConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	if err := applySchema(ctx, db); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	db.Close()
}

func testDatabaseConfig() *config.DatabaseConfig {
	port := 5432
	if v := os.Getenv("GRIDLINE_TEST_DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return &config.DatabaseConfig{
		Host:           envOr("GRIDLINE_TEST_DB_HOST", "localhost"),
		Port:           port,
		Name:           envOr("GRIDLINE_TEST_DB_NAME", "gridline_test"),
		User:           envOr("GRIDLINE_TEST_DB_USER", "test"),
		Password:       envOr("GRIDLINE_TEST_DB_PASSWORD", "test"),
		SSLMode:        "disable",
		MaxConnections: 5,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
