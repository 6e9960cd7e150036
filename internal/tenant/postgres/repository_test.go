package postgres

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/tenant"
)

func getMigrationsPath() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	parentDir := filepath.Dir(dir)
	parentDir = filepath.Dir(parentDir)
	return filepath.Join(parentDir, "database", "migrations")
}

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	m, err := migrate.New("file://"+getMigrationsPath(), dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	logger := zap.NewNop()
	repo, err := New(pool, logger)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func newTestTenant(slug string) *tenant.Tenant {
	hash, _ := tenant.HashAPIToken("s3cr3t-token")
	return &tenant.Tenant{
		Slug:            slug,
		DisplayName:     "Test Tenant",
		UpstreamBaseURL: "https://example.test/api",
		APITokenHash:    hash,
		Active:          true,
	}
}

func TestRepository_CreateAndGetTenant(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	tn := newTestTenant("acme_lending")

	require.NoError(t, repo.CreateTenant(ctx, tn))
	require.NotEqual(t, uuid.Nil, tn.ID)
	require.Equal(t, 1, tn.Version)

	fetched, err := repo.GetTenantBySlug(ctx, "acme_lending")
	require.NoError(t, err)
	require.Equal(t, tn.ID, fetched.ID)
	require.True(t, fetched.Active)
}

func TestRepository_CreateTenant_Duplicate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateTenant(ctx, newTestTenant("dup_tenant")))

	err := repo.CreateTenant(ctx, newTestTenant("dup_tenant"))
	require.ErrorIs(t, err, tenant.ErrTenantExists)
}

func TestRepository_UpdateTenant_VersionConflict(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	tn := newTestTenant("conflict_tenant")
	require.NoError(t, repo.CreateTenant(ctx, tn))

	stale := tn.Clone()
	tn.DisplayName = "Updated"
	require.NoError(t, repo.UpdateTenant(ctx, tn))

	stale.DisplayName = "Stale Update"
	err := repo.UpdateTenant(ctx, stale)
	require.ErrorIs(t, err, tenant.ErrVersionConflict)
}

func TestRepository_ListActiveTenants(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.CreateTenant(ctx, newTestTenant("active_one")))

	inactive := newTestTenant("inactive_one")
	inactive.Active = false
	require.NoError(t, repo.CreateTenant(ctx, inactive))

	active, err := repo.ListActiveTenants(ctx)
	require.NoError(t, err)
	for _, tn := range active {
		require.NotEqual(t, "inactive_one", tn.Slug)
	}
}

func TestRepository_GetTenantByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.GetTenantByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, tenant.ErrTenantNotFound)
}
