// Package postgres implements syncjob.Repository against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/syncjob"
)

// Repository implements syncjob.Repository for PostgreSQL.
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
		logger: logger.With(zap.String("component", "syncjob-postgres-repository")),
	}, nil
}

const createJobQuery = `
INSERT INTO sync_jobs (
    id, tenant_id, loan_category, status,
    remote_version_credit, remote_version_payment, result_summary
) VALUES (
    $1, $2, $3, $4, $5, $6, $7
)
RETURNING created_at, updated_at, version
`

func (r *Repository) Create(ctx context.Context, j *syncjob.SyncJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	summary, err := json.Marshal(j.ResultSummary)
	if err != nil {
		return fmt.Errorf("marshal result summary: %w", err)
	}

	row := r.pool.QueryRow(ctx, createJobQuery,
		j.ID, j.TenantID, string(j.LoanCategory), string(j.Status),
		j.RemoteVersionCredit, j.RemoteVersionPayment, summary,
	)
	if err := row.Scan(&j.CreatedAt, &j.UpdatedAt, &j.Version); err != nil {
		if isUniqueViolation(err) {
			return syncjob.ErrActiveJobExists
		}
		return fmt.Errorf("create sync job: %w", err)
	}
	r.logger.Info("sync job created",
		zap.String("id", j.ID.String()), zap.String("tenant_id", j.TenantID.String()),
		zap.String("loan_category", string(j.LoanCategory)))
	return nil
}

const selectJobColumns = `
    id, tenant_id, loan_category, status,
    remote_version_credit, remote_version_payment, result_summary, error_message,
    started_at, completed_at, version, created_at, updated_at
`

func scanJob(row pgx.Row) (*syncjob.SyncJob, error) {
	j := &syncjob.SyncJob{}
	var category, status string
	var summary []byte
	var errMsg sql.NullString

	err := row.Scan(
		&j.ID, &j.TenantID, &category, &status,
		&j.RemoteVersionCredit, &j.RemoteVersionPayment, &summary, &errMsg,
		&j.StartedAt, &j.CompletedAt, &j.Version, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.LoanCategory = syncjob.LoanCategory(category)
	j.Status = syncjob.Status(status)
	if errMsg.Valid {
		j.ErrorMessage = &errMsg.String
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &j.ResultSummary); err != nil {
			return nil, fmt.Errorf("unmarshal result summary: %w", err)
		}
	}
	return j, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*syncjob.SyncJob, error) {
	query := fmt.Sprintf("SELECT %s FROM sync_jobs WHERE id = $1", selectJobColumns)
	j, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, syncjob.ErrNotFound
		}
		return nil, fmt.Errorf("get sync job: %w", err)
	}
	return j, nil
}

const findActiveQuery = `
SELECT ` + selectJobColumns + `
FROM sync_jobs
WHERE tenant_id = $1 AND loan_category = $2 AND status IN ('PENDING', 'IN_PROGRESS')
ORDER BY created_at DESC
LIMIT 1
`

func (r *Repository) FindActive(ctx context.Context, tenantID uuid.UUID, category syncjob.LoanCategory) (*syncjob.SyncJob, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, findActiveQuery, tenantID, string(category)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active sync job: %w", err)
	}
	return j, nil
}

const lastSuccessQuery = `
SELECT ` + selectJobColumns + `
FROM sync_jobs
WHERE tenant_id = $1 AND loan_category = $2 AND status = 'SUCCESS'
ORDER BY completed_at DESC
LIMIT 1
`

func (r *Repository) LastSuccess(ctx context.Context, tenantID uuid.UUID, category syncjob.LoanCategory) (*syncjob.SyncJob, error) {
	j, err := scanJob(r.pool.QueryRow(ctx, lastSuccessQuery, tenantID, string(category)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get last successful sync job: %w", err)
	}
	return j, nil
}

const listByTenantQuery = `
SELECT ` + selectJobColumns + `
FROM sync_jobs
WHERE tenant_id = $1
ORDER BY started_at DESC NULLS FIRST
LIMIT $2
`

func (r *Repository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*syncjob.SyncJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, listByTenantQuery, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*syncjob.SyncJob, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync jobs: %w", err)
	}
	return jobs, nil
}

const updateJobQuery = `
UPDATE sync_jobs SET
    status = $2,
    remote_version_credit = $3,
    remote_version_payment = $4,
    result_summary = $5,
    error_message = $6,
    started_at = $7,
    completed_at = $8,
    updated_at = NOW(),
    version = version + 1
WHERE id = $1 AND version = $9
RETURNING version, updated_at
`

func (r *Repository) Update(ctx context.Context, j *syncjob.SyncJob) error {
	summary, err := json.Marshal(j.ResultSummary)
	if err != nil {
		return fmt.Errorf("marshal result summary: %w", err)
	}

	row := r.pool.QueryRow(ctx, updateJobQuery,
		j.ID, string(j.Status), j.RemoteVersionCredit, j.RemoteVersionPayment,
		summary, j.ErrorMessage, j.StartedAt, j.CompletedAt, j.Version,
	)
	if err := row.Scan(&j.Version, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, j.ID); getErr != nil {
				return syncjob.ErrNotFound
			}
			return syncjob.ErrVersionConflict
		}
		return fmt.Errorf("update sync job: %w", err)
	}
	return nil
}

const putReportQuery = `
INSERT INTO sync_reports (id, sync_job_id, total_rows_processed, profiling_stats, validation_errors)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (sync_job_id) DO UPDATE SET
    total_rows_processed = EXCLUDED.total_rows_processed,
    profiling_stats = EXCLUDED.profiling_stats,
    validation_errors = EXCLUDED.validation_errors
RETURNING created_at
`

func (r *Repository) PutReport(ctx context.Context, rep *syncjob.Report) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	stats, err := json.Marshal(rep.ProfilingStats)
	if err != nil {
		return fmt.Errorf("marshal profiling stats: %w", err)
	}
	validationErrors, err := json.Marshal(rep.ValidationErrors)
	if err != nil {
		return fmt.Errorf("marshal validation errors: %w", err)
	}

	row := r.pool.QueryRow(ctx, putReportQuery, rep.ID, rep.SyncJobID, rep.TotalRowsProcessed, stats, validationErrors)
	if err := row.Scan(&rep.CreatedAt); err != nil {
		return fmt.Errorf("put sync report: %w", err)
	}
	return nil
}

const getReportQuery = `
SELECT id, sync_job_id, total_rows_processed, profiling_stats, validation_errors, created_at
FROM sync_reports
WHERE sync_job_id = $1
`

func (r *Repository) GetReport(ctx context.Context, jobID uuid.UUID) (*syncjob.Report, error) {
	rep := &syncjob.Report{}
	var stats, validationErrors []byte
	err := r.pool.QueryRow(ctx, getReportQuery, jobID).Scan(
		&rep.ID, &rep.SyncJobID, &rep.TotalRowsProcessed, &stats, &validationErrors, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, syncjob.ErrNotFound
		}
		return nil, fmt.Errorf("get sync report: %w", err)
	}
	if err := json.Unmarshal(stats, &rep.ProfilingStats); err != nil {
		return nil, fmt.Errorf("unmarshal profiling stats: %w", err)
	}
	if err := json.Unmarshal(validationErrors, &rep.ValidationErrors); err != nil {
		return nil, fmt.Errorf("unmarshal validation errors: %w", err)
	}
	return rep, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
