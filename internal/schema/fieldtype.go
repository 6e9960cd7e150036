package schema

// FieldType classifies a column for profiling purposes.
type FieldType string

const (
	Numeric     FieldType = "NUMERIC"
	Categorical FieldType = "CATEGORICAL"
	Date        FieldType = "DATE"
	String      FieldType = "STRING"
	Skip        FieldType = "SKIP"
)

// creditFieldTypes is the static field-type schema consulted by the
// profiler for credit rows. tenant_id and loan_type are injected context,
// not profiled content, and are marked SKIP.
var creditFieldTypes = map[string]FieldType{
	"loan_account_number":           Categorical,
	"customer_id":                   Categorical,
	"tenant_id":                     Skip,
	"loan_type":                     Skip,
	"customer_type":                 Categorical,
	"loan_status_code":              Categorical,
	"loan_status_flag":              Categorical,
	"loan_product_type":             Categorical,
	"final_maturity_date":           Date,
	"first_payment_date":            Date,
	"loan_start_date":               Date,
	"loan_closing_date":             Date,
	"original_loan_amount":          Numeric,
	"outstanding_principal_balance": Numeric,
	"total_interest_amount":         Numeric,
	"kkdf_amount":                   Numeric,
	"bsmv_amount":                   Numeric,
	"nominal_interest_rate":         Numeric,
	"kkdf_rate":                     Numeric,
	"bsmv_rate":                     Numeric,
	"total_installment_count":       Numeric,
	"outstanding_installment_count": Numeric,
	"paid_installment_count":        Numeric,
	"installment_frequency":         Categorical,
	"grace_period_months":           Numeric,
	"days_past_due":                 Numeric,
	"internal_rating":               Categorical,
	"internal_credit_rating":        Categorical,
	"external_rating":               Categorical,
	"default_probability":           Numeric,
	"risk_class":                    Categorical,
	"sector_code":                   Categorical,
	"customer_segment":              Categorical,
	"customer_province_code":        Categorical,
	"customer_district_code":        Categorical,
	"customer_region_code":          Categorical,
	"insurance_included":            Categorical,
}

// paymentFieldTypes is the static field-type schema for payment rows.
var paymentFieldTypes = map[string]FieldType{
	"loan_account_number":    Categorical,
	"tenant_id":               Skip,
	"loan_type":               Skip,
	"installment_number":      Numeric,
	"actual_payment_date":     Date,
	"scheduled_payment_date":  Date,
	"installment_amount":      Numeric,
	"principal_component":     Numeric,
	"interest_component":      Numeric,
	"kkdf_component":          Numeric,
	"bsmv_component":          Numeric,
	"installment_status":      Categorical,
	"remaining_principal":     Numeric,
	"remaining_interest":      Numeric,
	"remaining_kkdf":          Numeric,
	"remaining_bsmv":          Numeric,
}

// FieldTypesForRole returns the field-type schema for a table role.
func FieldTypesForRole(role TableRole) map[string]FieldType {
	switch role {
	case RoleCredits:
		return creditFieldTypes
	case RolePayments:
		return paymentFieldTypes
	default:
		return nil
	}
}
