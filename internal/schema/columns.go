// Package schema defines the fixed column layouts and field-type
// classifications shared by the normalizer, warehouse adapter, validator,
// and profiler.
package schema

// CreditColumns is the ordered column tuple for the credits table and for
// every row emitted by the credit normalizer. Order matters: it is the
// column order used by batch inserts into the warehouse.
var CreditColumns = []string{
	"loan_account_number",
	"customer_id",
	"tenant_id",
	"loan_type",
	"customer_type",
	"loan_status_code",
	"loan_status_flag",
	"loan_product_type",
	"final_maturity_date",
	"first_payment_date",
	"loan_start_date",
	"loan_closing_date",
	"original_loan_amount",
	"outstanding_principal_balance",
	"total_interest_amount",
	"kkdf_amount",
	"bsmv_amount",
	"nominal_interest_rate",
	"kkdf_rate",
	"bsmv_rate",
	"total_installment_count",
	"outstanding_installment_count",
	"paid_installment_count",
	"installment_frequency",
	"grace_period_months",
	"days_past_due",
	"internal_rating",
	"internal_credit_rating",
	"external_rating",
	"default_probability",
	"risk_class",
	"sector_code",
	"customer_segment",
	"customer_province_code",
	"customer_district_code",
	"customer_region_code",
	"insurance_included",
}

// PaymentColumns is the ordered column tuple for the payments table.
var PaymentColumns = []string{
	"loan_account_number",
	"tenant_id",
	"loan_type",
	"installment_number",
	"actual_payment_date",
	"scheduled_payment_date",
	"installment_amount",
	"principal_component",
	"interest_component",
	"kkdf_component",
	"bsmv_component",
	"installment_status",
	"remaining_principal",
	"remaining_interest",
	"remaining_kkdf",
	"remaining_bsmv",
}

// TableRole distinguishes the two row shapes the pipeline handles.
type TableRole string

const (
	RoleCredits  TableRole = "credits"
	RolePayments TableRole = "payments"
)

// ColumnsForRole returns the ordered column tuple for a table role.
func ColumnsForRole(role TableRole) []string {
	switch role {
	case RoleCredits:
		return CreditColumns
	case RolePayments:
		return PaymentColumns
	default:
		return nil
	}
}
