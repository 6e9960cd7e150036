package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
)

type memoryJobRepo struct {
	mu     sync.Mutex
	active map[string]*syncjob.SyncJob
	last   map[string]*syncjob.SyncJob
	jobs   map[uuid.UUID]*syncjob.SyncJob
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{
		active: make(map[string]*syncjob.SyncJob),
		last:   make(map[string]*syncjob.SyncJob),
		jobs:   make(map[uuid.UUID]*syncjob.SyncJob),
	}
}

func dedupKey(tenantID uuid.UUID, category syncjob.LoanCategory) string {
	return tenantID.String() + "/" + string(category)
}

func (m *memoryJobRepo) Create(ctx context.Context, j *syncjob.SyncJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dedupKey(j.TenantID, j.LoanCategory)
	if _, exists := m.active[key]; exists {
		return syncjob.ErrActiveJobExists
	}
	m.active[key] = j
	m.jobs[j.ID] = j
	return nil
}

func (m *memoryJobRepo) Update(ctx context.Context, j *syncjob.SyncJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.ID] = j
	if !j.Active() {
		delete(m.active, dedupKey(j.TenantID, j.LoanCategory))
		if j.Status == syncjob.StatusSuccess {
			m.last[dedupKey(j.TenantID, j.LoanCategory)] = j
		}
	}
	return nil
}

func (m *memoryJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*syncjob.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, syncjob.ErrNotFound
	}
	return j, nil
}

func (m *memoryJobRepo) FindActive(ctx context.Context, tenantID uuid.UUID, category syncjob.LoanCategory) (*syncjob.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[dedupKey(tenantID, category)], nil
}

func (m *memoryJobRepo) LastSuccess(ctx context.Context, tenantID uuid.UUID, category syncjob.LoanCategory) (*syncjob.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[dedupKey(tenantID, category)], nil
}

func (m *memoryJobRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*syncjob.SyncJob, error) {
	return nil, nil
}

func (m *memoryJobRepo) PutReport(ctx context.Context, r *syncjob.Report) error { return nil }

func (m *memoryJobRepo) GetReport(ctx context.Context, jobID uuid.UUID) (*syncjob.Report, error) {
	return nil, nil
}

type fakeTenantRepo struct {
	tenant.Repository
	active []*tenant.Tenant
}

func (f *fakeTenantRepo) ListActiveTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	return f.active, nil
}

type fakeWorker struct {
	mu  sync.Mutex
	ran []uuid.UUID
}

func (f *fakeWorker) Run(ctx context.Context, jobID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, jobID)
	return nil
}

func versionServer(t *testing.T, credit, payment int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ft := r.URL.Query().Get("file_type")
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		version := payment
		if ft == "commercial_credit" || ft == "retail_credit" {
			version = credit
		}
		w.Header().Set("X-Data-Version", strconv.FormatInt(version, 10))
		w.WriteHeader(http.StatusOK)
	}))
}

func testUpstreamConfig() *config.UpstreamConfig {
	return &config.UpstreamConfig{
		RequestTimeout: 2 * time.Second,
		HeadTimeout:    2 * time.Second,
		MaxRetries:     0,
	}
}

func TestTriggerSync_FirstRunCreatesJob(t *testing.T) {
	srv := versionServer(t, 1, 1)
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL}
	jobs := newMemoryJobRepo()
	s := New(&fakeTenantRepo{}, jobs, &fakeWorker{}, testUpstreamConfig(), config.SchedulerConfig{MaxRetries: 3}, zaptest.NewLogger(t))

	jobID, err := s.TriggerSync(context.Background(), tn, syncjob.CategoryCommercial, false)
	require.NoError(t, err)
	require.NotNil(t, jobID)

	job, err := jobs.GetByID(context.Background(), *jobID)
	require.NoError(t, err)
	require.Equal(t, syncjob.StatusPending, job.Status)
}

func TestTriggerSync_NoUpdateSkipsWithoutForce(t *testing.T) {
	srv := versionServer(t, 7, 7)
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL}
	jobs := newMemoryJobRepo()
	credit, payment := int64(7), int64(7)
	jobs.last[dedupKey(tn.ID, syncjob.CategoryCommercial)] = &syncjob.SyncJob{
		RemoteVersionCredit:  &credit,
		RemoteVersionPayment: &payment,
	}

	s := New(&fakeTenantRepo{}, jobs, &fakeWorker{}, testUpstreamConfig(), config.SchedulerConfig{MaxRetries: 3}, zaptest.NewLogger(t))

	jobID, err := s.TriggerSync(context.Background(), tn, syncjob.CategoryCommercial, false)
	require.NoError(t, err)
	require.Nil(t, jobID)
}

func TestTriggerSync_ForceBypassesUnchangedVersion(t *testing.T) {
	srv := versionServer(t, 7, 7)
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL}
	jobs := newMemoryJobRepo()
	credit, payment := int64(7), int64(7)
	jobs.last[dedupKey(tn.ID, syncjob.CategoryCommercial)] = &syncjob.SyncJob{
		RemoteVersionCredit:  &credit,
		RemoteVersionPayment: &payment,
	}

	s := New(&fakeTenantRepo{}, jobs, &fakeWorker{}, testUpstreamConfig(), config.SchedulerConfig{MaxRetries: 3}, zaptest.NewLogger(t))

	jobID, err := s.TriggerSync(context.Background(), tn, syncjob.CategoryCommercial, true)
	require.NoError(t, err)
	require.NotNil(t, jobID)
}

func TestTriggerSync_DedupGuardSkipsWhenJobActive(t *testing.T) {
	srv := versionServer(t, 1, 1)
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL}
	jobs := newMemoryJobRepo()
	jobs.active[dedupKey(tn.ID, syncjob.CategoryCommercial)] = syncjob.New(tn.ID, syncjob.CategoryCommercial, nil, nil)

	s := New(&fakeTenantRepo{}, jobs, &fakeWorker{}, testUpstreamConfig(), config.SchedulerConfig{MaxRetries: 3}, zaptest.NewLogger(t))

	_, err := s.TriggerSync(context.Background(), tn, syncjob.CategoryCommercial, true)
	require.ErrorIs(t, err, ErrJobInFlight)
}

func TestTriggerSync_ProbeFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL}
	jobs := newMemoryJobRepo()

	s := New(&fakeTenantRepo{}, jobs, &fakeWorker{}, testUpstreamConfig(), config.SchedulerConfig{MaxRetries: 3}, zaptest.NewLogger(t))

	_, err := s.TriggerSync(context.Background(), tn, syncjob.CategoryCommercial, true)
	require.ErrorIs(t, err, ErrProbeFailed)
}

func TestScheduler_TickDispatchesToWorker(t *testing.T) {
	srv := versionServer(t, 1, 1)
	defer srv.Close()

	tn := &tenant.Tenant{ID: uuid.New(), Slug: "acme", UpstreamBaseURL: srv.URL, Active: true}
	jobs := newMemoryJobRepo()
	fw := &fakeWorker{}

	cfg := config.SchedulerConfig{Enabled: true, PollInterval: 20 * time.Millisecond, Workers: 1, ShutdownTimeout: time.Second, MaxRetries: 3}
	s := New(&fakeTenantRepo{active: []*tenant.Tenant{tn}}, jobs, fw, testUpstreamConfig(), cfg, zaptest.NewLogger(t))

	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		return len(fw.ran) > 0
	}, 2*time.Second, 10*time.Millisecond)
}
