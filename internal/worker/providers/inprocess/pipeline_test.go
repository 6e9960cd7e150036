package inprocess

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

type fakeWarehouse struct {
	mu                 sync.Mutex
	rows               map[string][][]any
	ghostCount         int64
	copyPartitionCalls []string
	insertBatchCalls   []string
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{rows: make(map[string][][]any)}
}

func (f *fakeWarehouse) InitTables(ctx context.Context) error { return nil }

func (f *fakeWarehouse) PrepareStaging(ctx context.Context, tenantSlug, category string, role schema.TableRole) (string, error) {
	name, err := warehouse.StagingTableName(tenantSlug, category, string(role))
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.rows[name] = nil
	f.mu.Unlock()
	return name, nil
}

func (f *fakeWarehouse) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[table] = append(f.rows[table], rows...)
	f.insertBatchCalls = append(f.insertBatchCalls, table)
	return nil
}

func (f *fakeWarehouse) SwapPartition(ctx context.Context, tenantID, loanType, staging, base string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[base] = f.rows[staging]
	delete(f.rows, staging)
	return nil
}

func (f *fakeWarehouse) CopyPartition(ctx context.Context, staging, base, tenantID, loanType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[staging] = append([][]any(nil), f.rows[base]...)
	f.copyPartitionCalls = append(f.copyPartitionCalls, staging)
	return nil
}

func (f *fakeWarehouse) SelectCount(ctx context.Context, table string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows[table])), nil
}

func (f *fakeWarehouse) DropTable(ctx context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, table)
	return nil
}

func (f *fakeWarehouse) CountWhere(ctx context.Context, table, predicate string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ghostCount, nil
}

func (f *fakeWarehouse) NumericStats(ctx context.Context, table, column string, totalRows int64) (warehouse.NumericStats, error) {
	return warehouse.NumericStats{}, nil
}

func (f *fakeWarehouse) CategoricalStats(ctx context.Context, table, column string, totalRows int64) (warehouse.CategoricalStats, error) {
	return warehouse.CategoricalStats{}, nil
}

func (f *fakeWarehouse) DateStats(ctx context.Context, table, column string, totalRows int64) (warehouse.DateStats, error) {
	return warehouse.DateStats{}, nil
}

func (f *fakeWarehouse) StringStats(ctx context.Context, table, column string, totalRows int64) (warehouse.StringStats, error) {
	return warehouse.StringStats{}, nil
}

func (f *fakeWarehouse) Close() error { return nil }

var _ warehouse.Provider = (*fakeWarehouse)(nil)

type fakeTenantRepo struct {
	tenant.Repository
	t *tenant.Tenant
}

func (f *fakeTenantRepo) GetTenantByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return f.t, nil
}

type fakeJobRepo struct {
	syncjob.Repository
	mu          sync.Mutex
	jobs        map[uuid.UUID]*syncjob.SyncJob
	reports     map[uuid.UUID]*syncjob.Report
	lastSuccess *syncjob.SyncJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*syncjob.SyncJob), reports: make(map[uuid.UUID]*syncjob.Report)}
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*syncjob.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := *f.jobs[id]
	return &j, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, j *syncjob.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *j
	f.jobs[j.ID] = &clone
	return nil
}

func (f *fakeJobRepo) LastSuccess(ctx context.Context, tenantID uuid.UUID, category syncjob.LoanCategory) (*syncjob.SyncJob, error) {
	return f.lastSuccess, nil
}

func (f *fakeJobRepo) PutReport(ctx context.Context, r *syncjob.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.SyncJobID] = r
	return nil
}

func newTestServer(t *testing.T, credits, payments []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ft := r.URL.Query().Get("file_type")
		w.Header().Set("Content-Type", "application/json")
		var payload []map[string]any
		if strings.HasSuffix(ft, "_credit") {
			payload = credits
		} else {
			payload = payments
		}
		json.NewEncoder(w).Encode(payload)
	}))
}

func testUpstreamConfig() *config.UpstreamConfig {
	return &config.UpstreamConfig{MaxRetries: 0}
}

func TestPipeline_Run_SuccessPath(t *testing.T) {
	srv := newTestServer(t, []map[string]any{
		{"loan_account_number": "L1", "customer_id": "C1", "original_loan_amount": "1000.00"},
	}, []map[string]any{
		{"loan_account_number": "L1", "installment_number": "1", "installment_amount": "100.00"},
	})
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme_lending", UpstreamBaseURL: srv.URL}
	jobRepo := newFakeJobRepo()
	job := syncjob.New(tn.ID, syncjob.CategoryCommercial, nil, nil)
	jobRepo.jobs[job.ID] = job

	p := New(jobRepo, &fakeTenantRepo{t: tn}, newFakeWarehouse(), testUpstreamConfig(), 100, zap.NewNop())

	if err := p.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got := jobRepo.jobs[job.ID]
	if got.Status != syncjob.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", got.Status)
	}
	if _, ok := jobRepo.reports[job.ID]; !ok {
		t.Fatal("expected a report to be written")
	}
}

func TestPipeline_Run_ValidationFailureAbortsSwap(t *testing.T) {
	srv := newTestServer(t, []map[string]any{
		{"loan_account_number": "", "customer_id": "C1"},
	}, []map[string]any{})
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme_lending", UpstreamBaseURL: srv.URL}
	jobRepo := newFakeJobRepo()
	job := syncjob.New(tn.ID, syncjob.CategoryCommercial, nil, nil)
	jobRepo.jobs[job.ID] = job

	wh := newFakeWarehouse()
	wh.ghostCount = 1

	p := New(jobRepo, &fakeTenantRepo{t: tn}, wh, testUpstreamConfig(), 100, zap.NewNop())

	if err := p.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got := jobRepo.jobs[job.ID]
	if got.Status != syncjob.StatusFailed {
		t.Fatalf("expected FAILED, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "Data Validation Failed" {
		t.Fatalf("expected exact validation failure message, got %v", got.ErrorMessage)
	}
	if _, swapped := wh.rows[warehouse.BaseTableName(schema.RoleCredits)]; swapped {
		t.Fatal("expected no partition swap after a validation failure")
	}
}

func TestPipeline_Run_SelectiveReuseCopiesUnchangedPartition(t *testing.T) {
	srv := newTestServer(t, []map[string]any{
		{"loan_account_number": "L1", "customer_id": "C1", "original_loan_amount": "1000.00"},
	}, []map[string]any{
		{"loan_account_number": "L1", "installment_number": "1", "installment_amount": "100.00"},
	})
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme_lending", UpstreamBaseURL: srv.URL}
	jobRepo := newFakeJobRepo()

	creditVersion := int64(5)
	oldPaymentVersion := int64(1)
	newPaymentVersion := int64(2)

	prior := syncjob.New(tn.ID, syncjob.CategoryCommercial, &creditVersion, &oldPaymentVersion)
	if err := prior.Begin(time.Now()); err != nil {
		t.Fatalf("begin prior job: %v", err)
	}
	if err := prior.Succeed(time.Now(), map[string]any{}); err != nil {
		t.Fatalf("succeed prior job: %v", err)
	}
	jobRepo.lastSuccess = prior

	job := syncjob.New(tn.ID, syncjob.CategoryCommercial, &creditVersion, &newPaymentVersion)
	jobRepo.jobs[job.ID] = job

	wh := newFakeWarehouse()
	baseCredits := warehouse.BaseTableName(schema.RoleCredits)
	wh.rows[baseCredits] = [][]any{{"L1", "C1", "1000.00"}}

	p := New(jobRepo, &fakeTenantRepo{t: tn}, wh, testUpstreamConfig(), 100, zap.NewNop())

	if err := p.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	got := jobRepo.jobs[job.ID]
	if got.Status != syncjob.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", got.Status)
	}

	stgCredits, err := warehouse.StagingTableName(tn.Slug, string(syncjob.CategoryCommercial), string(schema.RoleCredits))
	if err != nil {
		t.Fatalf("staging table name: %v", err)
	}
	stgPayments, err := warehouse.StagingTableName(tn.Slug, string(syncjob.CategoryCommercial), string(schema.RolePayments))
	if err != nil {
		t.Fatalf("staging table name: %v", err)
	}

	foundCreditCopy := false
	for _, table := range wh.copyPartitionCalls {
		if table == stgCredits {
			foundCreditCopy = true
		}
		if table == stgPayments {
			t.Fatalf("expected payments partition to be downloaded, not copied")
		}
	}
	if !foundCreditCopy {
		t.Fatalf("expected CopyPartition to run for the unchanged credits partition, calls: %v", wh.copyPartitionCalls)
	}

	foundPaymentInsert := false
	for _, table := range wh.insertBatchCalls {
		if table == stgPayments {
			foundPaymentInsert = true
		}
		if table == stgCredits {
			t.Fatalf("expected credits partition to be reused, not re-downloaded into staging")
		}
	}
	if !foundPaymentInsert {
		t.Fatalf("expected LoadPayments to insert into staging for the changed payments partition, calls: %v", wh.insertBatchCalls)
	}
}
