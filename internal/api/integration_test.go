//go:build integration

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/database"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/repository"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/synthesis"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(runWithDatabase(m))
}

func runWithDatabase(m *testing.M) int {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
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
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Printf("Failed to start container: %v\n", err)
		return 1
	}

	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}()

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/dermasim_test?sslmode=disable", host, port.Port())

	// Run migrations
	sqlDB, err := database.OpenSQL(connStr)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	migrator, err := database.NewMigrator(sqlDB, "dermasim_test")
	if err != nil {
		fmt.Printf("Failed to create migrator: %v\n", err)
		return 1
	}
	if err := migrator.Up(); err != nil {
		fmt.Printf("Failed to run migrations: %v\n", err)
		return 1
	}
	_ = migrator.Close()

	testDB, err = database.NewPool(ctx, database.DefaultPoolConfig(connStr))
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		return 1
	}
	defer testDB.Close()

	return m.Run()
}

// newHistoryRouter wires the mock backend plus the real generation store
func newHistoryRouter(t *testing.T) *Router {
	t.Helper()
	cfg := testConfig()
	cfg.RateLimitMax = 100

	deps, _ := newMockDependencies(t, cfg)
	repo := repository.NewGenerationRepository(testDB)
	deps.Generator.(*synthesis.Service).WithRecorder(repo)
	deps.Generations = repo
	deps.DB = testDB

	return newTestRouter(t, deps)
}

func TestIntegration_GenerateRecordsHistory(t *testing.T) {
	_, err := testDB.Exec(context.Background(), "TRUNCATE generations")
	require.NoError(t, err)

	app := newHistoryRouter(t).App()

	ok := postGenerate(t, app, "12", "crows_feet_botox")
	require.Empty(t, ok.Error)
	failed := postGenerate(t, app, "5", "eyelid_botox")
	require.NotEmpty(t, failed.Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/generations?limit=10", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var list handler.GenerationsListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 2, list.Count)

	// Most recent first
	assert.Equal(t, "eyelid_botox", list.Generations[0].Area)
	assert.Equal(t, "failed", list.Generations[0].Status)
	assert.Equal(t, "UNKNOWN_TREATMENT_AREA", list.Generations[0].ErrorCode)
	assert.Equal(t, "crows_feet_botox", list.Generations[1].Area)
	assert.Equal(t, "succeeded", list.Generations[1].Status)
	assert.Equal(t, 12, list.Generations[1].Dosage)
	assert.Equal(t, "mock", list.Generations[1].Backend)

	resp, err = app.Test(httptest.NewRequest("GET", "/generations/stats", nil), -1)
	require.NoError(t, err)

	var stats handler.GenerationStatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, handler.GenerationStatsResponse{Succeeded: 1, Failed: 1, Total: 2}, stats)
}

func TestIntegration_ReadyChecksDatabase(t *testing.T) {
	app := newHistoryRouter(t).App()

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var out handler.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ok", out.Components["database"])
	assert.Equal(t, "ok", out.Components["synthesizer"])
}

func TestIntegration_NotFoundReturns404(t *testing.T) {
	app := newHistoryRouter(t).App()

	resp, err := app.Test(httptest.NewRequest("GET", "/nonexistent", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
