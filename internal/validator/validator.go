// Package validator runs the fixed set of data-quality checks against a
// tenant's staging tables before a partition swap is allowed to proceed.
package validator

import (
	"context"
	"fmt"

	"github.com/jaxxstorm/loansync/internal/warehouse"
)

// Result is the outcome of validating one sync's staging tables.
type Result struct {
	// CriticalErrors are non-empty whenever the sync must abort without
	// swapping any partition.
	CriticalErrors []string
	// QualityWarnings are recorded alongside a successful sync but never
	// block it.
	QualityWarnings []string
}

// Failed reports whether any critical error was found.
func (r Result) Failed() bool { return len(r.CriticalErrors) > 0 }

const (
	ghostLoansPredicate      = "trim(loan_account_number) = '' OR loan_account_number = 'None'"
	negativeBalancePredicate = "outstanding_principal_balance < 0"
)

// Run executes the ghost-loan, orphan-payment, and negative-balance checks
// against the given staging tables and returns their combined result.
// stgCredits and stgPayments must already have passed
// warehouse.ValidateIdentifier (enforced by their callers when the
// staging names were generated).
func Run(ctx context.Context, wh warehouse.Provider, stgCredits, stgPayments string) (Result, error) {
	var result Result

	ghostCount, err := wh.CountWhere(ctx, stgCredits, ghostLoansPredicate)
	if err != nil {
		return result, fmt.Errorf("ghost loans check: %w", err)
	}
	if ghostCount > 0 {
		result.CriticalErrors = append(result.CriticalErrors,
			fmt.Sprintf("CRITICAL: %d rows missing Loan Account Number. Sync Aborted.", ghostCount))
	}

	if stgPayments != "" {
		orphanPredicate := fmt.Sprintf(
			"loan_account_number NOT IN (SELECT loan_account_number FROM %s)", stgCredits,
		)
		orphanCount, err := wh.CountWhere(ctx, stgPayments, orphanPredicate)
		if err != nil {
			return result, fmt.Errorf("orphan payments check: %w", err)
		}
		if orphanCount > 0 {
			result.QualityWarnings = append(result.QualityWarnings,
				fmt.Sprintf("WARNING: %d payment rows reference a loan not present in this batch.", orphanCount))
		}
	}

	negativeCount, err := wh.CountWhere(ctx, stgCredits, negativeBalancePredicate)
	if err != nil {
		return result, fmt.Errorf("negative balances check: %w", err)
	}
	if negativeCount > 0 {
		result.QualityWarnings = append(result.QualityWarnings,
			fmt.Sprintf("WARNING: %d loans have a negative outstanding principal balance.", negativeCount))
	}

	return result, nil
}
