package upstream

import (
	"context"
	"fmt"

	"github.com/jaxxstorm/loansync/internal/normalizer"
	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

// DefaultBatchSize is the row count threshold at which a buffered batch is
// flushed to the warehouse.
const DefaultBatchSize = 10000

// LoadResult summarizes one streaming load pass.
type LoadResult struct {
	RowsRead     int64
	RowsInserted int64
}

// Loader streams one file type from a tenant's upstream endpoint,
// normalizes each record leniently, and batch-inserts the result into a
// staging table.
type Loader struct {
	client    *Client
	warehouse warehouse.Provider
	batchSize int
}

// NewLoader builds a Loader. batchSize <= 0 falls back to DefaultBatchSize.
func NewLoader(client *Client, wh warehouse.Provider, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{client: client, warehouse: wh, batchSize: batchSize}
}

// LoadCredits streams the credits file into stagingTable, injecting
// tenantID and loanType into every record before normalization.
func (l *Loader) LoadCredits(ctx context.Context, tenantSlug, tenantID, loanType, stagingTable string) (LoadResult, error) {
	var result LoadResult
	buf := make([][]any, 0, l.batchSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := l.warehouse.InsertBatch(ctx, stagingTable, schema.CreditColumns, buf); err != nil {
			return fmt.Errorf("insert credit batch into %s: %w", stagingTable, err)
		}
		result.RowsInserted += int64(len(buf))
		buf = buf[:0]
		return nil
	}

	err := l.client.StreamRecords(ctx, tenantSlug, tenantID, FileTypeFor(loanType, true), func(rec normalizer.RawRecord) error {
		rec["tenant_id"] = tenantID
		rec["loan_type"] = loanType
		result.RowsRead++

		row, _ := normalizer.NormalizeCreditRow(rec, false)
		buf = append(buf, row.Values())
		if len(buf) >= l.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

// LoadPayments streams the payments file into stagingTable, mirroring
// LoadCredits.
func (l *Loader) LoadPayments(ctx context.Context, tenantSlug, tenantID, loanType, stagingTable string) (LoadResult, error) {
	var result LoadResult
	buf := make([][]any, 0, l.batchSize)

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := l.warehouse.InsertBatch(ctx, stagingTable, schema.PaymentColumns, buf); err != nil {
			return fmt.Errorf("insert payment batch into %s: %w", stagingTable, err)
		}
		result.RowsInserted += int64(len(buf))
		buf = buf[:0]
		return nil
	}

	err := l.client.StreamRecords(ctx, tenantSlug, tenantID, FileTypeFor(loanType, false), func(rec normalizer.RawRecord) error {
		rec["tenant_id"] = tenantID
		rec["loan_type"] = loanType
		result.RowsRead++

		row, _ := normalizer.NormalizePaymentRow(rec, false)
		buf = append(buf, row.Values())
		if len(buf) >= l.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}
