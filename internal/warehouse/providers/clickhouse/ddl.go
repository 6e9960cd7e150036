package clickhouse

// creditsTableDDL and paymentsTableDDL define the two base tables the
// loader targets, each shared by every tenant and loan category: one wide
// table per row role, an explicit tenant_id/loan_type pair on every row,
// partitioned so a single tenant/category's data can be replaced atomically.
//
// Categorical columns use LowCardinality(String) rather than a native
// ClickHouse Enum: the canonical code set is enforced in Go by
// internal/schema's EnumSet before a row ever reaches this table, so a
// DDL-level Enum would only duplicate that validation while making the
// schema harder to evolve.
const creditsTableDDL = `
CREATE TABLE IF NOT EXISTS credits_all (
	tenant_id                      String,
	loan_type                      LowCardinality(String),
	loan_account_number            String,
	customer_id                    Nullable(String),
	customer_type                  Nullable(LowCardinality(String)),
	loan_status_code               Nullable(LowCardinality(String)),
	loan_status_flag               Nullable(LowCardinality(String)),
	loan_product_type              Nullable(LowCardinality(String)),
	final_maturity_date            Nullable(Date),
	first_payment_date             Nullable(Date),
	loan_start_date                Nullable(Date),
	loan_closing_date              Nullable(Date),
	original_loan_amount           Nullable(Decimal(18, 4)),
	outstanding_principal_balance  Nullable(Decimal(18, 4)),
	total_interest_amount          Nullable(Decimal(18, 4)),
	kkdf_amount                    Nullable(Decimal(18, 4)),
	bsmv_amount                    Nullable(Decimal(18, 4)),
	nominal_interest_rate          Nullable(Decimal(10, 6)),
	kkdf_rate                      Nullable(Decimal(10, 6)),
	bsmv_rate                      Nullable(Decimal(10, 6)),
	total_installment_count        Nullable(Int32),
	outstanding_installment_count  Nullable(Int32),
	paid_installment_count         Nullable(Int32),
	installment_frequency          Nullable(Int32),
	grace_period_months            Nullable(Int32),
	days_past_due                  Nullable(Int32),
	internal_rating                Nullable(String),
	internal_credit_rating         Nullable(String),
	external_rating                Nullable(String),
	default_probability            Nullable(Decimal(10, 6)),
	risk_class                     Nullable(String),
	sector_code                    Nullable(String),
	customer_segment               Nullable(String),
	customer_province_code         Nullable(String),
	customer_district_code         Nullable(String),
	customer_region_code           Nullable(String),
	insurance_included              Nullable(LowCardinality(String)),
	inserted_at                    DateTime DEFAULT now()
)
ENGINE = MergeTree()
PARTITION BY (tenant_id, loan_type)
ORDER BY (loan_account_number)
`

const paymentsTableDDL = `
CREATE TABLE IF NOT EXISTS payments_all (
	tenant_id                String,
	loan_type                LowCardinality(String),
	loan_account_number      String,
	installment_number       Nullable(Int32),
	actual_payment_date      Nullable(Date),
	scheduled_payment_date   Nullable(Date),
	installment_amount       Nullable(Decimal(18, 4)),
	principal_component      Nullable(Decimal(18, 4)),
	interest_component       Nullable(Decimal(18, 4)),
	kkdf_component           Nullable(Decimal(18, 4)),
	bsmv_component           Nullable(Decimal(18, 4)),
	installment_status       Nullable(LowCardinality(String)),
	remaining_principal      Nullable(Decimal(18, 4)),
	remaining_interest       Nullable(Decimal(18, 4)),
	remaining_kkdf           Nullable(Decimal(18, 4)),
	remaining_bsmv           Nullable(Decimal(18, 4)),
	inserted_at              DateTime DEFAULT now()
)
ENGINE = MergeTree()
PARTITION BY (tenant_id, loan_type)
ORDER BY (loan_account_number)
`
