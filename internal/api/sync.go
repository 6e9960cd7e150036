package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/api/models"
	"github.com/jaxxstorm/loansync/internal/logger"
	"github.com/jaxxstorm/loansync/internal/scheduler"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
)

// authenticateTenant resolves the tenant for the X-API-Key header: it
// hashes the presented key, looks up the active tenant whose
// api_token_hash matches, then compares the digest in constant time as
// defense in depth against a hash-collision row.
func (s *Server) authenticateTenant(r *http.Request) (*tenant.Tenant, bool) {
	raw := r.Header.Get("X-API-Key")
	if raw == "" {
		return nil, false
	}

	sum := sha256.Sum256([]byte(raw))
	hash := hex.EncodeToString(sum[:])

	t, err := s.tenantRepo.GetTenantByAPITokenHash(r.Context(), hash)
	if err != nil {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(t.APITokenHash), []byte(hash)) != 1 {
		return nil, false
	}
	return t, true
}

// handleTriggerSync handles POST /api/sync: trigger_sync(tenant, category,
// force) for the tenant resolved from the X-API-Key header.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	t, ok := s.authenticateTenant(r)
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, "missing or invalid API key", nil, requestID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "failed to read request body", nil, requestID)
		return
	}
	defer r.Body.Close()

	var req models.TriggerSyncRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "invalid JSON format", []string{err.Error()}, requestID)
			return
		}
	}

	category := syncjob.LoanCategory(strings.ToUpper(strings.TrimSpace(req.LoanCategory)))
	if category != syncjob.CategoryCommercial && category != syncjob.CategoryRetail {
		s.writeErrorResponse(w, http.StatusBadRequest, "loan_category must be COMMERCIAL or RETAIL", nil, requestID)
		return
	}

	force := true
	if req.Force != nil {
		force = *req.Force
	}

	jobID, err := s.scheduler.TriggerSync(r.Context(), t, category, force)
	if err != nil {
		if errors.Is(err, scheduler.ErrProbeFailed) || errors.Is(err, scheduler.ErrJobInFlight) {
			s.writeErrorResponse(w, http.StatusConflict, err.Error(), nil, requestID)
			return
		}
		logger.WithTenant(s.logger, t.Slug).Error("trigger_sync failed", zap.Error(err))
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to trigger sync", nil, requestID)
		return
	}
	if jobID == nil {
		s.writeErrorResponse(w, http.StatusConflict, "no update available for this tenant and category", nil, requestID)
		return
	}

	resp := models.TriggerSyncResponse{
		Message: "sync job enqueued",
		JobID:   jobID.String(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(resp)
}

// handleGetJob handles GET /api/jobs/{jobID}: returns the current state of
// a sync job owned by the tenant resolved from the X-API-Key header.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")

	t, ok := s.authenticateTenant(r)
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, "missing or invalid API key", nil, requestID)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "invalid job id", nil, requestID)
		return
	}

	job, err := s.jobRepo.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, syncjob.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, "job not found", nil, requestID)
			return
		}
		logger.WithTenant(s.logger, t.Slug).Error("get job failed", zap.String("job_id", jobID.String()), zap.Error(err))
		s.writeErrorResponse(w, http.StatusInternalServerError, "failed to fetch job", nil, requestID)
		return
	}
	if job.TenantID != t.ID {
		s.writeErrorResponse(w, http.StatusNotFound, "job not found", nil, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.ToSyncJobResponse(job))
}

// writeErrorResponse writes a standardized error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, details []string, requestID string) {
	resp := models.ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: requestID,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
