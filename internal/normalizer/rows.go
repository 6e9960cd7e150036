package normalizer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jaxxstorm/loansync/internal/schema"
)

// RawRecord is one upstream JSON object before normalization.
type RawRecord map[string]any

func (r RawRecord) str(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// CreditRow is the normalized, column-ordered shape of a credit record.
// Nullable fields are represented as pointers; a nil pointer is the
// warehouse NULL.
type CreditRow struct {
	LoanAccountNumber          string
	CustomerID                 string
	TenantID                   string
	LoanType                   string
	CustomerType               *string
	LoanStatusCode             *string
	LoanStatusFlag             *string
	LoanProductType            *string
	FinalMaturityDate          *string
	FirstPaymentDate           *string
	LoanStartDate              *string
	LoanClosingDate            *string
	OriginalLoanAmount         *decimal.Decimal
	OutstandingPrincipalBalance *decimal.Decimal
	TotalInterestAmount        *decimal.Decimal
	KKDFAmount                 *decimal.Decimal
	BSMVAmount                 *decimal.Decimal
	NominalInterestRate        *decimal.Decimal
	KKDFRate                   *decimal.Decimal
	BSMVRate                   *decimal.Decimal
	TotalInstallmentCount      *int64
	OutstandingInstallmentCount *int64
	PaidInstallmentCount       *int64
	InstallmentFrequency       *int64
	GracePeriodMonths          *int64
	DaysPastDue                *int64
	InternalRating             *string
	InternalCreditRating       *string
	ExternalRating             *string
	DefaultProbability         *decimal.Decimal
	RiskClass                  *string
	SectorCode                 *string
	CustomerSegment            *string
	CustomerProvinceCode       *string
	CustomerDistrictCode       *string
	CustomerRegionCode         *string
	InsuranceIncluded          *string
}

// Values returns the row's fields in schema.CreditColumns order, ready for
// a column-ordered batch insert.
func (r *CreditRow) Values() []any {
	return []any{
		r.LoanAccountNumber, r.CustomerID, r.TenantID, r.LoanType,
		r.CustomerType, r.LoanStatusCode, r.LoanStatusFlag, r.LoanProductType,
		r.FinalMaturityDate, r.FirstPaymentDate, r.LoanStartDate, r.LoanClosingDate,
		r.OriginalLoanAmount, r.OutstandingPrincipalBalance, r.TotalInterestAmount,
		r.KKDFAmount, r.BSMVAmount,
		r.NominalInterestRate, r.KKDFRate, r.BSMVRate,
		r.TotalInstallmentCount, r.OutstandingInstallmentCount, r.PaidInstallmentCount,
		r.InstallmentFrequency, r.GracePeriodMonths, r.DaysPastDue,
		r.InternalRating, r.InternalCreditRating, r.ExternalRating,
		r.DefaultProbability, r.RiskClass,
		r.SectorCode, r.CustomerSegment, r.CustomerProvinceCode,
		r.CustomerDistrictCode, r.CustomerRegionCode, r.InsuranceIncluded,
	}
}

// PaymentRow is the normalized, column-ordered shape of a payment record.
type PaymentRow struct {
	LoanAccountNumber     string
	TenantID              string
	LoanType              string
	InstallmentNumber     *int64
	ActualPaymentDate     *string
	ScheduledPaymentDate  *string
	InstallmentAmount     *decimal.Decimal
	PrincipalComponent    *decimal.Decimal
	InterestComponent     *decimal.Decimal
	KKDFComponent         *decimal.Decimal
	BSMVComponent         *decimal.Decimal
	InstallmentStatus     *string
	RemainingPrincipal    *decimal.Decimal
	RemainingInterest     *decimal.Decimal
	RemainingKKDF         *decimal.Decimal
	RemainingBSMV         *decimal.Decimal
}

// Values returns the row's fields in schema.PaymentColumns order.
func (r *PaymentRow) Values() []any {
	return []any{
		r.LoanAccountNumber, r.TenantID, r.LoanType,
		r.InstallmentNumber, r.ActualPaymentDate, r.ScheduledPaymentDate,
		r.InstallmentAmount, r.PrincipalComponent, r.InterestComponent,
		r.KKDFComponent, r.BSMVComponent, r.InstallmentStatus,
		r.RemainingPrincipal, r.RemainingInterest, r.RemainingKKDF, r.RemainingBSMV,
	}
}

// NormalizationError wraps one or more field failures for a row rejected
// in strict mode, identified by its loan account number.
type NormalizationError struct {
	LoanAccountNumber string
	Cause             error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("row %s: %v", e.LoanAccountNumber, e.Cause)
}

func (e *NormalizationError) Unwrap() error { return e.Cause }

func moneyPtr(d decimal.Decimal, ok bool) *decimal.Decimal {
	if !ok {
		return nil
	}
	return &d
}

func strPtr(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

func intPtr(n int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &n
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeCreditRow normalizes one raw credit record. tenantID and
// loanType must already be injected into raw by the loader.
//
// In strict mode, the first field failure aborts the row and returns a
// *NormalizationError. In lenient mode (the ingest default), each field is
// normalized independently: a failing field becomes absent, its failure is
// appended to the returned warning list, and the row is still returned so
// downstream profiling can measure null ratios.
func NormalizeCreditRow(raw RawRecord, strict bool) (*CreditRow, []error) {
	var warnings []error
	fail := func(err error) bool {
		if strict {
			return true
		}
		warnings = append(warnings, err)
		return false
	}

	row := &CreditRow{
		LoanAccountNumber: raw.str("loan_account_number"),
		CustomerID:        raw.str("customer_id"),
		TenantID:          raw.str("tenant_id"),
		LoanType:          raw.str("loan_type"),
	}

	customerType, ok, err := ToEnum("customer_type", raw.str("customer_type"), schema.CustomerType)
	if err != nil && fail(err) {
		return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
	}
	row.CustomerType = strPtr(customerType, ok)

	statusCode, ok, err := ToEnum("loan_status_code", raw.str("loan_status_code"), schema.LoanStatusCode)
	if err != nil && fail(err) {
		return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
	}
	row.LoanStatusCode = strPtr(statusCode, ok)

	if flagRaw := raw.str("loan_status_flag"); flagRaw != "" {
		flag, ok, err := ToEnum("loan_status_flag", flagRaw, schema.LoanStatusFlag)
		if err != nil && fail(err) {
			return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
		}
		row.LoanStatusFlag = strPtr(flag, ok)
	} else if ok {
		row.LoanStatusFlag = strPtr(schema.DeriveLoanStatusFlag(statusCode), true)
	}

	row.LoanProductType = nonEmptyPtr(raw.str("loan_product_type"))

	for _, f := range []struct {
		field string
		dst   **string
	}{
		{"final_maturity_date", &row.FinalMaturityDate},
		{"first_payment_date", &row.FirstPaymentDate},
		{"loan_start_date", &row.LoanStartDate},
		{"loan_closing_date", &row.LoanClosingDate},
	} {
		d, ok, err := ToDate(f.field, raw.str(f.field))
		if err != nil {
			if fail(err) {
				return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
			}
			continue
		}
		*f.dst = strPtr(d, ok)
	}

	for _, f := range []struct {
		field string
		dst   **int64
	}{
		{"total_installment_count", &row.TotalInstallmentCount},
		{"outstanding_installment_count", &row.OutstandingInstallmentCount},
		{"paid_installment_count", &row.PaidInstallmentCount},
		{"installment_frequency", &row.InstallmentFrequency},
		{"grace_period_months", &row.GracePeriodMonths},
		{"days_past_due", &row.DaysPastDue},
	} {
		n, ok := ToInt(raw.str(f.field))
		*f.dst = intPtr(n, ok)
	}

	for _, f := range []struct {
		field     string
		dst       **decimal.Decimal
		precision int32
	}{
		{"original_loan_amount", &row.OriginalLoanAmount, 4},
		{"outstanding_principal_balance", &row.OutstandingPrincipalBalance, 4},
		{"total_interest_amount", &row.TotalInterestAmount, 4},
		{"kkdf_amount", &row.KKDFAmount, 4},
		{"bsmv_amount", &row.BSMVAmount, 4},
	} {
		d, ok, err := ToDecimal(f.field, raw.str(f.field), f.precision)
		if err != nil {
			if fail(err) {
				return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
			}
			continue
		}
		*f.dst = moneyPtr(d, ok)
	}

	for _, f := range []struct {
		field string
		dst   **decimal.Decimal
	}{
		{"nominal_interest_rate", &row.NominalInterestRate},
		{"kkdf_rate", &row.KKDFRate},
		{"bsmv_rate", &row.BSMVRate},
	} {
		d, ok, err := ToRate(f.field, raw.str(f.field), 6)
		if err != nil {
			if fail(err) {
				return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
			}
			continue
		}
		*f.dst = moneyPtr(d, ok)
	}

	row.InternalRating = nonEmptyPtr(raw.str("internal_rating"))
	row.InternalCreditRating = nonEmptyPtr(raw.str("internal_credit_rating"))
	row.ExternalRating = nonEmptyPtr(raw.str("external_rating"))
	row.RiskClass = nonEmptyPtr(raw.str("risk_class"))
	row.SectorCode = nonEmptyPtr(raw.str("sector_code"))
	row.CustomerSegment = nonEmptyPtr(raw.str("customer_segment"))
	row.CustomerProvinceCode = nonEmptyPtr(raw.str("customer_province_code"))
	row.CustomerDistrictCode = nonEmptyPtr(raw.str("customer_district_code"))
	row.CustomerRegionCode = nonEmptyPtr(raw.str("customer_region_code"))

	defProb, ok, err := ToDecimal("default_probability", raw.str("default_probability"), 6)
	if err != nil {
		if fail(err) {
			return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
		}
	} else {
		row.DefaultProbability = moneyPtr(defProb, ok)
	}

	insurance, ok, err := ToEnum("insurance_included", raw.str("insurance_included"), schema.InsuranceIncluded)
	if err != nil && fail(err) {
		return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
	}
	row.InsuranceIncluded = strPtr(insurance, ok)

	return row, warnings
}

// NormalizePaymentRow normalizes one raw payment record. See
// NormalizeCreditRow for the strict/lenient contract.
func NormalizePaymentRow(raw RawRecord, strict bool) (*PaymentRow, []error) {
	var warnings []error
	fail := func(err error) bool {
		if strict {
			return true
		}
		warnings = append(warnings, err)
		return false
	}

	row := &PaymentRow{
		LoanAccountNumber: raw.str("loan_account_number"),
		TenantID:          raw.str("tenant_id"),
		LoanType:          raw.str("loan_type"),
	}

	n, ok := ToInt(raw.str("installment_number"))
	row.InstallmentNumber = intPtr(n, ok)

	for _, f := range []struct {
		field string
		dst   **string
	}{
		{"scheduled_payment_date", &row.ScheduledPaymentDate},
		{"actual_payment_date", &row.ActualPaymentDate},
	} {
		d, ok, err := ToDate(f.field, raw.str(f.field))
		if err != nil {
			if fail(err) {
				return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
			}
			continue
		}
		*f.dst = strPtr(d, ok)
	}

	for _, f := range []struct {
		field string
		dst   **decimal.Decimal
	}{
		{"installment_amount", &row.InstallmentAmount},
		{"principal_component", &row.PrincipalComponent},
		{"interest_component", &row.InterestComponent},
		{"kkdf_component", &row.KKDFComponent},
		{"bsmv_component", &row.BSMVComponent},
		{"remaining_principal", &row.RemainingPrincipal},
		{"remaining_interest", &row.RemainingInterest},
		{"remaining_kkdf", &row.RemainingKKDF},
		{"remaining_bsmv", &row.RemainingBSMV},
	} {
		d, ok, err := ToDecimal(f.field, raw.str(f.field), 4)
		if err != nil {
			if fail(err) {
				return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
			}
			continue
		}
		*f.dst = moneyPtr(d, ok)
	}

	status, ok, err := ToEnum("installment_status", raw.str("installment_status"), schema.InstallmentStatus)
	if err != nil {
		if fail(err) {
			return nil, []error{&NormalizationError{row.LoanAccountNumber, err}}
		}
	} else {
		row.InstallmentStatus = strPtr(status, ok)
	}

	return row, warnings
}
