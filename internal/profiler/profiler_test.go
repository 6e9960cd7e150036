package profiler

import (
	"context"
	"fmt"
	"testing"

	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

type stubWarehouse struct {
	warehouse.Provider
	totalRows      int64
	failColumn     string
	numericCalls   int
	categoricCalls int
	dateCalls      int
	stringCalls    int
}

func (s *stubWarehouse) SelectCount(ctx context.Context, table string) (int64, error) {
	return s.totalRows, nil
}

func (s *stubWarehouse) NumericStats(ctx context.Context, table, column string, totalRows int64) (warehouse.NumericStats, error) {
	s.numericCalls++
	if column == s.failColumn {
		return warehouse.NumericStats{}, fmt.Errorf("boom")
	}
	return warehouse.NumericStats{Min: 1, Max: 2, Avg: 1.5}, nil
}

func (s *stubWarehouse) CategoricalStats(ctx context.Context, table, column string, totalRows int64) (warehouse.CategoricalStats, error) {
	s.categoricCalls++
	return warehouse.CategoricalStats{UniqueCount: 3}, nil
}

func (s *stubWarehouse) DateStats(ctx context.Context, table, column string, totalRows int64) (warehouse.DateStats, error) {
	s.dateCalls++
	return warehouse.DateStats{Min: "2024-01-01", Max: "2024-12-31"}, nil
}

func (s *stubWarehouse) StringStats(ctx context.Context, table, column string, totalRows int64) (warehouse.StringStats, error) {
	s.stringCalls++
	return warehouse.StringStats{UniqueCount: 5}, nil
}

func TestRun_ZeroRowsShortCircuits(t *testing.T) {
	wh := &stubWarehouse{totalRows: 0}
	report, err := Run(context.Background(), wh, "stg_acme_commercial_credits", schema.RoleCredits)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.TotalRows != 0 {
		t.Fatalf("expected TotalRows 0, got %d", report.TotalRows)
	}
	if len(report.Fields) != 0 {
		t.Fatalf("expected no field entries for an empty table, got %d", len(report.Fields))
	}
	if wh.numericCalls != 0 {
		t.Fatal("expected no field queries for an empty table")
	}
}

func TestRun_ProfilesEveryNonSkipField(t *testing.T) {
	wh := &stubWarehouse{totalRows: 100}
	report, err := Run(context.Background(), wh, "stg_acme_commercial_credits", schema.RoleCredits)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, ok := report.Fields["tenant_id"]; ok {
		t.Fatal("tenant_id is SKIP and must not appear in the report")
	}
	if stats, ok := report.Fields["original_loan_amount"]; !ok || stats.Numeric == nil {
		t.Fatal("expected original_loan_amount to be profiled as NUMERIC")
	}
	if stats, ok := report.Fields["loan_account_number"]; !ok || stats.Categorical == nil {
		t.Fatal("expected loan_account_number to be profiled as CATEGORICAL")
	}
	if stats, ok := report.Fields["loan_start_date"]; !ok || stats.Date == nil {
		t.Fatal("expected loan_start_date to be profiled as DATE")
	}
}

func TestRun_PerFieldFailureDoesNotAbortOthers(t *testing.T) {
	wh := &stubWarehouse{totalRows: 100, failColumn: "original_loan_amount"}
	report, err := Run(context.Background(), wh, "stg_acme_commercial_credits", schema.RoleCredits)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	failed, ok := report.Fields["original_loan_amount"]
	if !ok || failed.Err == "" {
		t.Fatal("expected original_loan_amount to carry an error")
	}
	other, ok := report.Fields["outstanding_principal_balance"]
	if !ok || other.Numeric == nil {
		t.Fatal("expected a sibling numeric field to profile successfully despite the failure")
	}
}
