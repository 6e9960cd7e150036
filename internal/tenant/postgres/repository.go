package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/tenant"
)

// Repository implements tenant.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a PostgreSQL repository. Accepts interface{} to satisfy the
// database.Provider abstraction and type-asserts to *pgxpool.Pool.
func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{
		pool:   pgPool,
		logger: logger.With(zap.String("component", "tenant-postgres-repository")),
	}, nil
}

const createTenantQuery = `
INSERT INTO tenants (
    id, slug, display_name, upstream_base_url, upstream_bearer_token, api_token_hash, active
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
)
RETURNING created_at, updated_at, version
`

func (r *Repository) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	r.logger.Debug("creating tenant", zap.String("slug", t.Slug), zap.String("id", t.ID.String()))

	row := r.pool.QueryRow(ctx, createTenantQuery,
		t.ID, t.Slug, t.DisplayName, t.UpstreamBaseURL, nullString(t.UpstreamBearerToken), t.APITokenHash, t.Active,
	)

	if err := row.Scan(&t.CreatedAt, &t.UpdatedAt, &t.Version); err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrTenantExists
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	r.logger.Info("tenant created", zap.String("id", t.ID.String()), zap.String("slug", t.Slug))
	return nil
}

const selectTenantColumns = `
    id, slug, display_name, upstream_base_url, upstream_bearer_token, api_token_hash, active,
    created_at, updated_at, version
`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	t := &tenant.Tenant{}
	var bearerToken sql.NullString
	err := row.Scan(
		&t.ID, &t.Slug, &t.DisplayName, &t.UpstreamBaseURL, &bearerToken, &t.APITokenHash, &t.Active,
		&t.CreatedAt, &t.UpdatedAt, &t.Version,
	)
	if err != nil {
		return nil, err
	}
	t.UpstreamBearerToken = bearerToken.String
	return t, nil
}

func (r *Repository) GetTenantBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM tenants WHERE slug = $1", selectTenantColumns)
	t, err := scanTenant(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTenantByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM tenants WHERE id = $1", selectTenantColumns)
	t, err := scanTenant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTenantByAPITokenHash(ctx context.Context, hash string) (*tenant.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM tenants WHERE api_token_hash = $1 AND active = true", selectTenantColumns)
	t, err := scanTenant(r.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by api token hash: %w", err)
	}
	return t, nil
}

const updateTenantQuery = `
UPDATE tenants SET
    slug = $2,
    display_name = $3,
    upstream_base_url = $4,
    upstream_bearer_token = $5,
    api_token_hash = $6,
    active = $7,
    updated_at = NOW(),
    version = version + 1
WHERE id = $1 AND version = $8
RETURNING version, updated_at
`

func (r *Repository) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	row := r.pool.QueryRow(ctx, updateTenantQuery,
		t.ID, t.Slug, t.DisplayName, t.UpstreamBaseURL, nullString(t.UpstreamBearerToken), t.APITokenHash, t.Active, t.Version,
	)

	if err := row.Scan(&t.Version, &t.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return tenant.ErrTenantExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetTenantByID(ctx, t.ID); getErr != nil {
				return tenant.ErrTenantNotFound
			}
			return tenant.ErrVersionConflict
		}
		return fmt.Errorf("update tenant: %w", err)
	}

	r.logger.Info("tenant updated", zap.String("id", t.ID.String()), zap.Int("new_version", t.Version))
	return nil
}

func (r *Repository) ListTenants(ctx context.Context, filters tenant.ListFilters) ([]*tenant.Tenant, error) {
	query := fmt.Sprintf("SELECT %s FROM tenants WHERE 1=1", selectTenantColumns)
	var args []interface{}
	argPos := 1

	if filters.ActiveOnly {
		query += " AND active = true"
	}
	query += " ORDER BY created_at ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
		argPos++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

const listActiveTenantsQuery = `
SELECT ` + selectTenantColumns + `
FROM tenants
WHERE active = true
ORDER BY slug ASC
`

func (r *Repository) ListActiveTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := r.pool.Query(ctx, listActiveTenantsQuery)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

func scanTenants(rows pgx.Rows) ([]*tenant.Tenant, error) {
	tenants := make([]*tenant.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

const deleteTenantQuery = `DELETE FROM tenants WHERE id = $1 RETURNING id`

func (r *Repository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	var deletedID uuid.UUID
	err := r.pool.QueryRow(ctx, deleteTenantQuery, id).Scan(&deletedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.ErrTenantNotFound
		}
		return fmt.Errorf("delete tenant: %w", err)
	}
	r.logger.Info("tenant deleted", zap.String("id", id.String()))
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
