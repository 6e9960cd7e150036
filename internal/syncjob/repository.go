package syncjob

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a job or report doesn't exist.
	ErrNotFound = errors.New("sync job not found")

	// ErrVersionConflict is returned when an optimistic locking conflict
	// occurs on update.
	ErrVersionConflict = errors.New("version conflict: sync job was modified by another operation")

	// ErrActiveJobExists is returned by Create when a PENDING or
	// IN_PROGRESS job already exists for the (tenant, category) pair, the
	// in-database enforcement of the dedup-guard invariant.
	ErrActiveJobExists = errors.New("an active sync job already exists for this tenant and category")
)

// Repository defines the persistence layer for sync jobs and their reports.
type Repository interface {
	// Create persists a new PENDING job. Returns ErrActiveJobExists if one
	// is already PENDING or IN_PROGRESS for (j.TenantID, j.LoanCategory).
	Create(ctx context.Context, j *SyncJob) error

	// Update persists a job's mutated state using optimistic locking on
	// Version. Returns ErrVersionConflict on concurrent modification.
	Update(ctx context.Context, j *SyncJob) error

	// GetByID retrieves a job by primary key.
	GetByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// FindActive returns the PENDING or IN_PROGRESS job for (tenantID,
	// category), if any.
	FindActive(ctx context.Context, tenantID uuid.UUID, category LoanCategory) (*SyncJob, error)

	// LastSuccess returns the most recently completed SUCCESS job for
	// (tenantID, category), if any.
	LastSuccess(ctx context.Context, tenantID uuid.UUID, category LoanCategory) (*SyncJob, error)

	// ListByTenant returns jobs for a tenant ordered by StartedAt
	// descending, most recent first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*SyncJob, error)

	// PutReport persists the SyncReport for a completed job. A job has at
	// most one report.
	PutReport(ctx context.Context, r *Report) error

	// GetReport retrieves the report for a job, if one was written.
	GetReport(ctx context.Context, jobID uuid.UUID) (*Report, error)
}
