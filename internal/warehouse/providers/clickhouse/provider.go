// Package clickhouse implements warehouse.Provider against a ClickHouse
// cluster: table DDL, batch insert, atomic partition replace, and the
// analytic queries the validator and profiler run over staging tables.
package clickhouse

import (
	"context"
	"fmt"
	"math"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

const (
	creditsTable  = "credits_all"
	paymentsTable = "payments_all"
)

// Provider is a warehouse.Provider backed by a ClickHouse connection.
type Provider struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

// New dials ClickHouse using cfg and returns a ready Provider.
func New(ctx context.Context, cfg *config.WarehouseConfig, logger *zap.Logger) (*Provider, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: cfg.DialTimeout,
		Protocol:    protocolFor(cfg.Protocol),
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return &Provider{conn: conn, logger: logger.With(zap.String("component", "warehouse"))}, nil
}

func protocolFor(name string) clickhouse.Protocol {
	if name == "http" {
		return clickhouse.HTTP
	}
	return clickhouse.Native
}

// TableName returns the base table name for a role.
func TableName(role schema.TableRole) string {
	return warehouse.BaseTableName(role)
}

// InitTables idempotently creates credits_all and payments_all.
func (p *Provider) InitTables(ctx context.Context) error {
	if err := p.conn.Exec(ctx, creditsTableDDL); err != nil {
		return fmt.Errorf("create %s: %w", creditsTable, err)
	}
	if err := p.conn.Exec(ctx, paymentsTableDDL); err != nil {
		return fmt.Errorf("create %s: %w", paymentsTable, err)
	}
	p.logger.Info("warehouse base tables initialized")
	return nil
}

// PrepareStaging drops any stale staging table by the deterministic name
// and creates a fresh one mirroring the base table's schema.
func (p *Provider) PrepareStaging(ctx context.Context, tenantSlug, category string, role schema.TableRole) (string, error) {
	name, err := warehouse.StagingTableName(tenantSlug, category, string(role))
	if err != nil {
		return "", err
	}
	base := TableName(role)
	if err := p.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", name)); err != nil {
		return "", fmt.Errorf("drop stale staging %s: %w", name, err)
	}
	if err := p.conn.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", name, base)); err != nil {
		return "", fmt.Errorf("create staging %s: %w", name, err)
	}
	return name, nil
}

// InsertBatch bulk-inserts rows into table, preserving column order.
func (p *Provider) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	colList := ""
	for i, c := range columns {
		if i > 0 {
			colList += ", "
		}
		colList += c
	}
	batch, err := p.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, colList))
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", table, err)
	}
	for i, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append row %d to %s: %w", i, table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", table, err)
	}
	return nil
}

// SwapPartition atomically replaces the (tenantID, loanType) partition of
// base with staging's contents, then drops staging. ClickHouse's REPLACE
// PARTITION is itself atomic with respect to concurrent readers of base.
func (p *Provider) SwapPartition(ctx context.Context, tenantID, loanType, staging, base string) error {
	sql := fmt.Sprintf(
		"ALTER TABLE %s REPLACE PARTITION (?, ?) FROM %s",
		base, staging,
	)
	if err := p.conn.Exec(ctx, sql, tenantID, loanType); err != nil {
		return fmt.Errorf("replace partition (%s,%s) on %s: %w", tenantID, loanType, base, err)
	}
	if err := p.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", staging)); err != nil {
		return fmt.Errorf("drop staging %s after swap: %w", staging, err)
	}
	p.logger.Info("partition swap complete",
		zap.String("tenant_id", tenantID), zap.String("loan_type", loanType), zap.String("base", base))
	return nil
}

// CopyPartition bulk-copies the current (tenantID, loanType) partition
// from base into staging. ClickHouse has no bind syntax for identifiers,
// only literal values, so tenantID and loanType are bound in the WHERE
// clause while staging and base are interpolated; staging names come from
// warehouse.StagingTableName, which validates their parts.
func (p *Provider) CopyPartition(ctx context.Context, staging, base, tenantID, loanType string) error {
	sql := fmt.Sprintf(
		"INSERT INTO %s SELECT * FROM %s WHERE tenant_id = ? AND loan_type = ?",
		staging, base,
	)
	if err := p.conn.Exec(ctx, sql, tenantID, loanType); err != nil {
		return fmt.Errorf("copy partition (%s,%s) from %s into %s: %w", tenantID, loanType, base, staging, err)
	}
	return nil
}

// SelectCount returns the row count of table.
func (p *Provider) SelectCount(ctx context.Context, table string) (int64, error) {
	row := p.conn.QueryRow(ctx, fmt.Sprintf("SELECT count() FROM %s", table))
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("select count from %s: %w", table, err)
	}
	return int64(n), nil
}

// DropTable drops table if it exists.
func (p *Provider) DropTable(ctx context.Context, table string) error {
	if err := p.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// CountWhere counts rows in table matching a raw predicate. predicate is
// always one of the fixed strings in internal/validator, never
// user-supplied, so string interpolation here carries no injection risk.
func (p *Provider) CountWhere(ctx context.Context, table, predicate string) (int64, error) {
	row := p.conn.QueryRow(ctx, fmt.Sprintf("SELECT count() FROM %s WHERE %s", table, predicate))
	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count where on %s: %w", table, err)
	}
	return int64(n), nil
}

func nullRatio(nullCount, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round4(float64(nullCount) / float64(total))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// NumericStats computes min/max/avg/population-stddev/null_count for a
// numeric column.
func (p *Provider) NumericStats(ctx context.Context, table, column string, totalRows int64) (warehouse.NumericStats, error) {
	sql := fmt.Sprintf(
		"SELECT min(%[1]s), max(%[1]s), avg(%[1]s), stddevPop(%[1]s), countIf(%[1]s IS NULL) FROM %[2]s",
		column, table,
	)
	row := p.conn.QueryRow(ctx, sql)
	var min, max, avg, stddev float64
	var nullCount uint64
	if err := row.Scan(&min, &max, &avg, &stddev, &nullCount); err != nil {
		return warehouse.NumericStats{}, fmt.Errorf("numeric stats for %s.%s: %w", table, column, err)
	}
	return warehouse.NumericStats{
		Min: round4(min), Max: round4(max), Avg: round4(avg), StdDev: round4(stddev),
		NullCount: int64(nullCount), NullRatio: nullRatio(int64(nullCount), totalRows),
	}, nil
}

// CategoricalStats computes unique_count, null_count, and the most
// frequent value with its count and share for a categorical column.
func (p *Provider) CategoricalStats(ctx context.Context, table, column string, totalRows int64) (warehouse.CategoricalStats, error) {
	sql := fmt.Sprintf(
		`SELECT
			uniqExact(%[1]s),
			countIf(%[1]s IS NULL),
			topK(1)(%[1]s)[1] AS most_freq,
			countIf(%[1]s = topK(1)(%[1]s)[1])
		FROM %[2]s`,
		column, table,
	)
	row := p.conn.QueryRow(ctx, sql)
	var unique, nullCount, mostFrequentCount uint64
	var mostFrequent string
	if err := row.Scan(&unique, &nullCount, &mostFrequent, &mostFrequentCount); err != nil {
		return warehouse.CategoricalStats{}, fmt.Errorf("categorical stats for %s.%s: %w", table, column, err)
	}

	share := 0.0
	if totalRows > 0 {
		share = round4(float64(mostFrequentCount) / float64(totalRows))
	}

	return warehouse.CategoricalStats{
		UniqueCount: int64(unique), NullCount: int64(nullCount), NullRatio: nullRatio(int64(nullCount), totalRows),
		MostFrequentValue: mostFrequent, MostFrequentCount: int64(mostFrequentCount), MostFrequentShare: share,
	}, nil
}

// DateStats computes min/max/null_count for a date column.
func (p *Provider) DateStats(ctx context.Context, table, column string, totalRows int64) (warehouse.DateStats, error) {
	sql := fmt.Sprintf(
		"SELECT toString(min(%[1]s)), toString(max(%[1]s)), countIf(%[1]s IS NULL) FROM %[2]s",
		column, table,
	)
	row := p.conn.QueryRow(ctx, sql)
	var min, max string
	var nullCount uint64
	if err := row.Scan(&min, &max, &nullCount); err != nil {
		return warehouse.DateStats{}, fmt.Errorf("date stats for %s.%s: %w", table, column, err)
	}
	return warehouse.DateStats{
		Min: min, Max: max, NullCount: int64(nullCount), NullRatio: nullRatio(int64(nullCount), totalRows),
	}, nil
}

// StringStats computes unique_count plus null-or-empty count/ratio for a
// free-text column.
func (p *Provider) StringStats(ctx context.Context, table, column string, totalRows int64) (warehouse.StringStats, error) {
	sql := fmt.Sprintf(
		"SELECT uniqExact(%[1]s), countIf(%[1]s IS NULL OR %[1]s = '') FROM %[2]s",
		column, table,
	)
	row := p.conn.QueryRow(ctx, sql)
	var unique, emptyCount uint64
	if err := row.Scan(&unique, &emptyCount); err != nil {
		return warehouse.StringStats{}, fmt.Errorf("string stats for %s.%s: %w", table, column, err)
	}
	return warehouse.StringStats{
		UniqueCount: int64(unique), NullOrEmptyCount: int64(emptyCount),
		NullOrEmptyRatio: nullRatio(int64(emptyCount), totalRows),
	}, nil
}

// Close releases the underlying connection.
func (p *Provider) Close() error {
	return p.conn.Close()
}
