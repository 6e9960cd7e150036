// Package profiler computes per-field descriptive statistics over a
// staging table, keyed by the field-type schema in internal/schema.
package profiler

import (
	"context"
	"fmt"

	"github.com/jaxxstorm/loansync/internal/schema"
	"github.com/jaxxstorm/loansync/internal/warehouse"
)

// FieldStats is one field's entry in a profiling report. Exactly one of
// the typed stats fields is populated, matching the field's schema type;
// Err is set instead when the underlying query failed.
type FieldStats struct {
	Type        schema.FieldType
	Numeric     *warehouse.NumericStats
	Categorical *warehouse.CategoricalStats
	Date        *warehouse.DateStats
	String      *warehouse.StringStats
	Err         string
}

// Report maps each profiled field name to its computed statistics and
// records the table's total row count in TotalRows.
type Report struct {
	TotalRows int64
	Fields    map[string]FieldStats
}

// Run profiles every non-SKIP field of role's schema against table. A
// zero-row table short-circuits to a Report with only TotalRows set. A
// failure profiling one field is recorded as that field's Err and does
// not prevent the remaining fields from being profiled.
func Run(ctx context.Context, wh warehouse.Provider, table string, role schema.TableRole) (Report, error) {
	report := Report{Fields: make(map[string]FieldStats)}

	total, err := wh.SelectCount(ctx, table)
	if err != nil {
		return report, fmt.Errorf("total row count for %s: %w", table, err)
	}
	report.TotalRows = total
	if total == 0 {
		return report, nil
	}

	columns := schema.ColumnsForRole(role)
	fieldTypes := schema.FieldTypesForRole(role)

	for _, column := range columns {
		ft, ok := fieldTypes[column]
		if !ok || ft == schema.Skip {
			continue
		}
		report.Fields[column] = profileField(ctx, wh, table, column, ft, total)
	}

	return report, nil
}

func profileField(ctx context.Context, wh warehouse.Provider, table, column string, ft schema.FieldType, total int64) FieldStats {
	switch ft {
	case schema.Numeric:
		stats, err := wh.NumericStats(ctx, table, column, total)
		if err != nil {
			return FieldStats{Type: ft, Err: err.Error()}
		}
		return FieldStats{Type: ft, Numeric: &stats}
	case schema.Categorical:
		stats, err := wh.CategoricalStats(ctx, table, column, total)
		if err != nil {
			return FieldStats{Type: ft, Err: err.Error()}
		}
		return FieldStats{Type: ft, Categorical: &stats}
	case schema.Date:
		stats, err := wh.DateStats(ctx, table, column, total)
		if err != nil {
			return FieldStats{Type: ft, Err: err.Error()}
		}
		return FieldStats{Type: ft, Date: &stats}
	case schema.String:
		stats, err := wh.StringStats(ctx, table, column, total)
		if err != nil {
			return FieldStats{Type: ft, Err: err.Error()}
		}
		return FieldStats{Type: ft, String: &stats}
	default:
		return FieldStats{Type: ft, Err: fmt.Sprintf("unknown field type %q", ft)}
	}
}
