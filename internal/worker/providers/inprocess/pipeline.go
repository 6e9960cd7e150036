// Package inprocess runs the sync pipeline synchronously on the calling
// goroutine: one job, start to finish, on one worker. It is the only
// worker.Provider implementation; the interface exists so the dispatch
// loop depends on a narrow contract rather than this package directly.
package inprocess

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/profiler"
	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
	"github.com/jaxxstorm/loansync/internal/upstream"
	"github.com/jaxxstorm/loansync/internal/validator"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

// Pipeline implements worker.Provider against a warehouse connection
// shared across every job it runs.
type Pipeline struct {
	jobs        syncjob.Repository
	tenants     tenant.Repository
	warehouse   warehouse.Provider
	upstreamCfg *config.UpstreamConfig
	batchSize   int
	logger      *zap.Logger
}

// New builds a Pipeline. batchSize <= 0 falls back to upstream.DefaultBatchSize.
func New(jobs syncjob.Repository, tenants tenant.Repository, wh warehouse.Provider, upstreamCfg *config.UpstreamConfig, batchSize int, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		jobs:        jobs,
		tenants:     tenants,
		warehouse:   wh,
		upstreamCfg: upstreamCfg,
		batchSize:   batchSize,
		logger:      logger.With(zap.String("component", "worker-pipeline")),
	}
}

// Run executes the full pipeline for job J: begin, selective load,
// validate, profile, swap, and terminal transition. Staging tables are
// dropped on every exit path.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	t, err := p.tenants.GetTenantByID(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant for job %s: %w", jobID, err)
	}

	log := p.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("tenant", t.Slug),
		zap.String("loan_category", string(job.LoanCategory)),
	)

	if err := job.Begin(time.Now()); err != nil {
		return fmt.Errorf("begin job %s: %w", jobID, err)
	}
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist IN_PROGRESS for job %s: %w", jobID, err)
	}
	log.Info("sync job started")

	needsCredit, needsPayment, err := p.needsDownload(ctx, job)
	if err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("determine selective load plan: %w", err))
	}

	category := string(job.LoanCategory)
	stgCredits, err := p.warehouse.PrepareStaging(ctx, t.Slug, category, schema.RoleCredits)
	if err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("prepare credit staging: %w", err))
	}
	stgPayments, err := p.warehouse.PrepareStaging(ctx, t.Slug, category, schema.RolePayments)
	if err != nil {
		p.dropStaging(ctx, log, stgCredits)
		return p.failSystem(ctx, job, fmt.Errorf("prepare payment staging: %w", err))
	}
	defer func() {
		p.dropStaging(ctx, log, stgCredits)
		p.dropStaging(ctx, log, stgPayments)
	}()

	client := upstream.New(p.upstreamCfg, t.UpstreamBaseURL, t.UpstreamBearerToken)
	loader := upstream.NewLoader(client, p.warehouse, p.batchSize)
	tenantID := t.TenantID()
	baseCredits := warehouse.BaseTableName(schema.RoleCredits)
	basePayments := warehouse.BaseTableName(schema.RolePayments)

	var rowsProcessed int64

	if needsCredit {
		result, err := loader.LoadCredits(ctx, t.Slug, tenantID, category, stgCredits)
		if err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("load credits: %w", err))
		}
		rowsProcessed += result.RowsInserted
		log.Info("credits downloaded", zap.Int64("rows_read", result.RowsRead), zap.Int64("rows_inserted", result.RowsInserted))
	} else {
		if err := p.warehouse.CopyPartition(ctx, stgCredits, baseCredits, tenantID, category); err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("copy credit partition: %w", err))
		}
		count, err := p.warehouse.SelectCount(ctx, stgCredits)
		if err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("count copied credits: %w", err))
		}
		rowsProcessed += count
		log.Info("credits unchanged, copied existing partition", zap.Int64("rows", count))
	}

	if needsPayment {
		result, err := loader.LoadPayments(ctx, t.Slug, tenantID, category, stgPayments)
		if err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("load payments: %w", err))
		}
		rowsProcessed += result.RowsInserted
		log.Info("payments downloaded", zap.Int64("rows_read", result.RowsRead), zap.Int64("rows_inserted", result.RowsInserted))
	} else {
		if err := p.warehouse.CopyPartition(ctx, stgPayments, basePayments, tenantID, category); err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("copy payment partition: %w", err))
		}
		count, err := p.warehouse.SelectCount(ctx, stgPayments)
		if err != nil {
			return p.failSystem(ctx, job, fmt.Errorf("count copied payments: %w", err))
		}
		rowsProcessed += count
		log.Info("payments unchanged, copied existing partition", zap.Int64("rows", count))
	}

	validation, err := validator.Run(ctx, p.warehouse, stgCredits, stgPayments)
	if err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("run validation: %w", err))
	}
	if validation.Failed() {
		log.Warn("sync job failed validation", zap.Strings("critical_errors", validation.CriticalErrors))
		return p.failValidation(ctx, job, rowsProcessed, validation)
	}

	creditProfile, err := profiler.Run(ctx, p.warehouse, stgCredits, schema.RoleCredits)
	if err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("profile credits: %w", err))
	}
	paymentProfile, err := profiler.Run(ctx, p.warehouse, stgPayments, schema.RolePayments)
	if err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("profile payments: %w", err))
	}

	if err := p.warehouse.SwapPartition(ctx, tenantID, category, stgCredits, baseCredits); err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("swap credit partition: %w", err))
	}
	if err := p.warehouse.SwapPartition(ctx, tenantID, category, stgPayments, basePayments); err != nil {
		return p.failSystem(ctx, job, fmt.Errorf("swap payment partition: %w", err))
	}

	summary := map[string]any{
		"rows_processed":        rowsProcessed,
		"needs_credit_download": needsCredit,
		"needs_payment_download": needsPayment,
		"quality_warnings":      validation.QualityWarnings,
	}
	if err := job.Succeed(time.Now(), summary); err != nil {
		return fmt.Errorf("succeed job %s: %w", jobID, err)
	}
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist SUCCESS for job %s: %w", jobID, err)
	}

	report := &syncjob.Report{
		SyncJobID:          job.ID,
		TotalRowsProcessed: rowsProcessed,
		ProfilingStats: map[string]any{
			"credits":  creditProfile,
			"payments": paymentProfile,
		},
		ValidationErrors: validation.QualityWarnings,
	}
	if err := p.jobs.PutReport(ctx, report); err != nil {
		return fmt.Errorf("write report for job %s: %w", jobID, err)
	}

	log.Info("sync job succeeded", zap.Int64("rows_processed", rowsProcessed))
	return nil
}

// needsDownload compares J's target versions against the tenant's last
// SUCCESS job for the same category. Both default to true when no prior
// success exists.
func (p *Pipeline) needsDownload(ctx context.Context, job *syncjob.SyncJob) (needsCredit, needsPayment bool, err error) {
	last, err := p.jobs.LastSuccess(ctx, job.TenantID, job.LoanCategory)
	if err != nil {
		return false, false, err
	}
	if last == nil {
		return true, true, nil
	}
	return !versionsEqual(last.RemoteVersionCredit, job.RemoteVersionCredit),
		!versionsEqual(last.RemoteVersionPayment, job.RemoteVersionPayment),
		nil
}

func versionsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func (p *Pipeline) dropStaging(ctx context.Context, log *zap.Logger, table string) {
	if table == "" {
		return
	}
	if err := p.warehouse.DropTable(ctx, table); err != nil {
		log.Warn("failed to drop staging table", zap.String("table", table), zap.Error(err))
	}
}

func (p *Pipeline) failSystem(ctx context.Context, job *syncjob.SyncJob, cause error) error {
	if err := job.FailSystem(time.Now(), cause.Error()); err != nil {
		return fmt.Errorf("fail_system transition for job %s: %w", job.ID, err)
	}
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist FAILED for job %s: %w", job.ID, err)
	}
	p.logger.Error("sync job failed", zap.String("job_id", job.ID.String()), zap.Error(cause))
	return nil
}

func (p *Pipeline) failValidation(ctx context.Context, job *syncjob.SyncJob, rowsProcessed int64, result validator.Result) error {
	if err := job.FailValidation(time.Now(), result.CriticalErrors); err != nil {
		return fmt.Errorf("fail_validation transition for job %s: %w", job.ID, err)
	}
	if err := p.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist FAILED for job %s: %w", job.ID, err)
	}
	report := &syncjob.Report{
		SyncJobID:          job.ID,
		TotalRowsProcessed: rowsProcessed,
		ProfilingStats:     map[string]any{},
		ValidationErrors:   result.CriticalErrors,
	}
	if err := p.jobs.PutReport(ctx, report); err != nil {
		return fmt.Errorf("write validation failure report for job %s: %w", job.ID, err)
	}
	return nil
}
