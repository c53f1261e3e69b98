package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/answers-api/internal/platform/postgres"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// migrateOnce guards schema setup so parallel tests in one package only
// migrate once.
var migrateOnce sync.Once

// GetTestDatabaseURL returns the database URL for tests. DATABASE_URL wins
// over ANSWERS_TEST_DB_URL.
func GetTestDatabaseURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}
	return os.Getenv("ANSWERS_TEST_DB_URL")
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT opens the test database with a migrated schema. The test is
// skipped when no database is configured, and the connection is closed on
// cleanup.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL or ANSWERS_TEST_DB_URL not set - skipping integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open database connection")

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "Database ping failed")

	SetupTestDatabaseSchema(t, db)

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	return db
}

// SetupTestDatabaseSchema applies the embedded migrations to db.
func SetupTestDatabaseSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	var migrateErr error
	migrateOnce.Do(func() {
		migrateErr = ApplyMigrations(db)
	})
	require.NoError(t, migrateErr, "Failed to run migrations")
}

// ApplyMigrations runs every pending embedded migration against db.
func ApplyMigrations(db *sql.DB) error {
	goose.SetBaseFS(postgres.Migrations)
	goose.SetTableName(postgres.MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetLogger(quietGooseLogger{})

	if err := goose.Up(db, postgres.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction that is always rolled back, so each
// test sees a clean database.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// Truncate empties the given tables. Tests that need committed data across
// connections, such as concurrency tests, call it from t.Cleanup.
func Truncate(t *testing.T, db *sql.DB, tables ...string) {
	t.Helper()
	if len(tables) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// quietGooseLogger drops goose progress output during tests.
type quietGooseLogger struct{}

func (quietGooseLogger) Printf(string, ...interface{}) {}

func (quietGooseLogger) Fatalf(format string, v ...interface{}) {
	panic(fmt.Sprintf("goose: "+format, v...))
}
