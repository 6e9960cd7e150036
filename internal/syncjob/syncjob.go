// Package syncjob models one tenant/category sync attempt as a strict
// state machine: PENDING -> IN_PROGRESS -> {SUCCESS, FAILED}.
package syncjob

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is a SyncJob's position in its state machine.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// LoanCategory mirrors schema.LoanCategory's two codes, kept as its own
// type here so syncjob has no dependency on the schema package's column
// definitions.
type LoanCategory string

const (
	CategoryCommercial LoanCategory = "COMMERCIAL"
	CategoryRetail      LoanCategory = "RETAIL"
)

// SyncJob is one attempt to sync a tenant's credit and payment datasets
// for one loan category. At most one job may be in PENDING or IN_PROGRESS
// for a given (TenantID, LoanCategory) pair; the database enforces this
// with a partial unique index. Begin checks only this job's own status.
type SyncJob struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	LoanCategory LoanCategory
	Status       Status

	RemoteVersionCredit  *int64
	RemoteVersionPayment *int64

	ResultSummary map[string]any
	ErrorMessage  *string

	StartedAt   *time.Time
	CompletedAt *time.Time

	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a job in PENDING, recording the target versions the worker
// will attempt to reach.
func New(tenantID uuid.UUID, category LoanCategory, targetCredit, targetPayment *int64) *SyncJob {
	return &SyncJob{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		LoanCategory:         category,
		Status:               StatusPending,
		RemoteVersionCredit:  targetCredit,
		RemoteVersionPayment: targetPayment,
		ResultSummary:        map[string]any{},
		Version:              1,
	}
}

// Begin transitions PENDING -> IN_PROGRESS and stamps StartedAt. Returns
// an error if the job is not currently PENDING.
func (j *SyncJob) Begin(now time.Time) error {
	if j.Status != StatusPending {
		return fmt.Errorf("cannot begin job %s: status is %s, want %s", j.ID, j.Status, StatusPending)
	}
	j.Status = StatusInProgress
	j.StartedAt = &now
	return nil
}

// Succeed transitions IN_PROGRESS -> SUCCESS, stamping CompletedAt and
// recording the result summary. Returns an error if the job is not
// currently IN_PROGRESS.
func (j *SyncJob) Succeed(now time.Time, summary map[string]any) error {
	if j.Status != StatusInProgress {
		return fmt.Errorf("cannot succeed job %s: status is %s, want %s", j.ID, j.Status, StatusInProgress)
	}
	j.Status = StatusSuccess
	j.CompletedAt = &now
	j.ResultSummary = summary
	return nil
}

// FailValidation transitions IN_PROGRESS -> FAILED with the fixed message
// "Data Validation Failed", recording the critical errors that caused the
// abort in the result summary.
func (j *SyncJob) FailValidation(now time.Time, criticalErrors []string) error {
	if j.Status != StatusInProgress {
		return fmt.Errorf("cannot fail job %s: status is %s, want %s", j.ID, j.Status, StatusInProgress)
	}
	msg := "Data Validation Failed"
	j.Status = StatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = &msg
	j.ResultSummary = map[string]any{"critical_errors": criticalErrors}
	return nil
}

// FailSystem transitions IN_PROGRESS -> FAILED with a "System Error: ..."
// message built from detail. The result summary may be left empty when
// the failure occurred before any useful statistics were gathered.
func (j *SyncJob) FailSystem(now time.Time, detail string) error {
	if j.Status != StatusInProgress {
		return fmt.Errorf("cannot fail job %s: status is %s, want %s", j.ID, j.Status, StatusInProgress)
	}
	msg := fmt.Sprintf("System Error: %s", detail)
	j.Status = StatusFailed
	j.CompletedAt = &now
	j.ErrorMessage = &msg
	return nil
}

// Active reports whether the job is still PENDING or IN_PROGRESS.
func (j *SyncJob) Active() bool {
	return j.Status == StatusPending || j.Status == StatusInProgress
}

// Report is the detailed record of one job's outcome: how many rows were
// processed, the full profiling breakdown, and any validation messages.
// It is written when the job reaches SUCCESS or fails validation; a job
// that fails with a system error gets no report.
type Report struct {
	ID                 uuid.UUID
	SyncJobID          uuid.UUID
	TotalRowsProcessed int64
	ProfilingStats     map[string]any
	ValidationErrors   []string
	CreatedAt          time.Time
}
