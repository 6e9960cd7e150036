package models

import (
	"time"

	"github.com/jaxxstorm/loansync/internal/syncjob"
)

// TriggerSyncRequest is the body of POST /api/sync.
type TriggerSyncRequest struct {
	// LoanCategory selects which dataset to sync: "COMMERCIAL" or "RETAIL".
	LoanCategory string `json:"loan_category"`

	// Force bypasses the version-comparison check and always creates a
	// job unless the dedup guard fires. Defaults to true when the field
	// is omitted, matching the operator-trigger default.
	Force *bool `json:"force,omitempty"`
}

// TriggerSyncResponse is returned on 202 Accepted.
type TriggerSyncResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// ErrorResponse is a standardized error body.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// SyncJobResponse represents one sync job in API responses.
type SyncJobResponse struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	LoanCategory string     `json:"loan_category"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToSyncJobResponse converts a domain SyncJob into its API representation.
func ToSyncJobResponse(j *syncjob.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:           j.ID.String(),
		TenantID:     j.TenantID.String(),
		LoanCategory: string(j.LoanCategory),
		Status:       string(j.Status),
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		CreatedAt:    j.CreatedAt,
	}
}
