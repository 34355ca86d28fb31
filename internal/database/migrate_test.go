//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/database"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "dermasim_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/dermasim_test?sslmode=disable", host, port.Port())
}

// TestMigratorIntegration tests the migration functionality
func TestMigratorIntegration(t *testing.T) {
	dsn := startPostgres(t)

	db, err := database.OpenSQL(dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))

	t.Run("Up runs migrations successfully", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "dermasim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Up())
		assertTableExists(t, db, "generations")

		// Second run is a no-op
		require.NoError(t, migrator.Up())
	})

	t.Run("Version returns current version", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "dermasim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty, "migration should not be dirty")
		assert.Equal(t, uint(1), version, "should be at version 1")
	})

	t.Run("generations table has correct columns", func(t *testing.T) {
		columns := getTableColumns(t, db, "generations")
		expectedColumns := []string{
			"id", "area", "dosage", "strength", "guidance_scale", "backend", "status",
			"error_code", "input_width", "input_height", "latency_ms", "created_at",
		}
		assert.Equal(t, expectedColumns, columns)
	})

	t.Run("status constraint rejects unknown values", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO generations (area, backend, status) VALUES ($1, $2, $3)`,
			"lip_filler", "mock", "pending")
		assert.Error(t, err)
	})

	t.Run("Down rolls back", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "dermasim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Down())

		var exists bool
		require.NoError(t, db.QueryRow(`
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = 'generations'
			)
		`).Scan(&exists))
		assert.False(t, exists)
	})
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}

func getTableColumns(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		require.NoError(t, rows.Scan(&col))
		columns = append(columns, col)
	}

	return columns
}

func TestMigrateUpIntegration(t *testing.T) {
	dsn := startPostgres(t)

	version, err := database.MigrateUp(dsn, "dermasim_test")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Second run is a no-op
	version, err = database.MigrateUp(dsn, "dermasim_test")
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
