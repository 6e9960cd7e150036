package warehouse

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaxxstorm/loansync/internal/schema"
)

// Provider is the warehouse adapter contract: table/partition lifecycle
// plus the analytic queries the validator and profiler run over staging.
// Exactly one concrete implementation (ClickHouse) backs production use;
// the interface exists so the pipeline depends on a narrow contract
// instead of a driver.
type Provider interface {
	// InitTables idempotently ensures credits_all and payments_all exist.
	InitTables(ctx context.Context) error

	// PrepareStaging drops any stale staging table by the deterministic
	// name and creates a fresh one with the base table's schema. Returns
	// the staging table name.
	PrepareStaging(ctx context.Context, tenantSlug, category string, role schema.TableRole) (string, error)

	// InsertBatch bulk-inserts rows into table, preserving column order.
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error

	// SwapPartition atomically replaces the (tenantID, loanType) partition
	// of the base table with staging's contents, then drops staging.
	SwapPartition(ctx context.Context, tenantID, loanType, staging, base string) error

	// CopyPartition bulk-copies the current (tenantID, loanType) partition
	// from base into staging, used by the unchanged-version fast path.
	CopyPartition(ctx context.Context, staging, base, tenantID, loanType string) error

	// SelectCount returns the row count of table.
	SelectCount(ctx context.Context, table string) (int64, error)

	// DropTable drops table if it exists.
	DropTable(ctx context.Context, table string) error

	// CountWhere returns a count of rows in table matching a raw
	// predicate, used by the validator's fixed checks.
	CountWhere(ctx context.Context, table, predicate string) (int64, error)

	// NumericStats returns min/max/avg/stddev/null_count for a numeric
	// column, used by the profiler.
	NumericStats(ctx context.Context, table, column string, totalRows int64) (NumericStats, error)

	// CategoricalStats returns unique_count/null_count/most-frequent
	// value+count for a categorical column.
	CategoricalStats(ctx context.Context, table, column string, totalRows int64) (CategoricalStats, error)

	// DateStats returns min/max/null_count for a date column.
	DateStats(ctx context.Context, table, column string, totalRows int64) (DateStats, error)

	// StringStats returns unique_count plus null-or-empty count/ratio for
	// a free-text column.
	StringStats(ctx context.Context, table, column string, totalRows int64) (StringStats, error)

	// Close releases the underlying connection pool.
	Close() error
}

// NumericStats is the profiler's output shape for NUMERIC fields.
type NumericStats struct {
	Min, Max, Avg, StdDev float64
	NullCount             int64
	NullRatio             float64
}

// CategoricalStats is the profiler's output shape for CATEGORICAL fields.
type CategoricalStats struct {
	UniqueCount        int64
	NullCount          int64
	NullRatio          float64
	MostFrequentValue  string
	MostFrequentCount  int64
	MostFrequentShare  float64
}

// DateStats is the profiler's output shape for DATE fields.
type DateStats struct {
	Min, Max  string
	NullCount int64
	NullRatio float64
}

// StringStats is the profiler's output shape for STRING fields.
type StringStats struct {
	UniqueCount      int64
	NullOrEmptyCount int64
	NullOrEmptyRatio float64
}

// ErrProviderConflict is returned by Registry.Register when a name is
// already taken.
var ErrProviderConflict = fmt.Errorf("warehouse provider already registered")

// ErrProviderNotFound is returned by Registry.Get for an unknown name.
var ErrProviderNotFound = fmt.Errorf("warehouse provider not found")

// Registry is a thread-safe name -> Provider lookup, mirroring the shape
// used throughout this codebase for other pluggable backends.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under name. Returns ErrProviderConflict if the
// name is already registered.
func (r *Registry) Register(name string, p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderConflict, name)
	}
	r.providers[name] = p
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// List returns the names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}
