package schema

import "strings"

// EnumVariant pairs a canonical wire code with its human-readable label.
// The normalizer's to_enum primitive accepts either form, case-insensitive,
// and always emits the code.
type EnumVariant struct {
	Code  string
	Label string
}

// EnumSet is a closed, bidirectional code/label lookup for one enum.
type EnumSet struct {
	variants []EnumVariant
	byCode   map[string]string
	byLabel  map[string]string
}

// NewEnumSet builds a lookup table from an ordered variant list.
func NewEnumSet(variants []EnumVariant) *EnumSet {
	s := &EnumSet{
		variants: variants,
		byCode:   make(map[string]string, len(variants)),
		byLabel:  make(map[string]string, len(variants)),
	}
	for _, v := range variants {
		s.byCode[strings.ToUpper(v.Code)] = v.Code
		s.byLabel[strings.ToUpper(v.Label)] = v.Code
	}
	return s
}

// Canonicalize resolves a raw code-or-label string to its canonical code.
// The bool is false when the input matches neither a code nor a label.
func (s *EnumSet) Canonicalize(raw string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	if code, ok := s.byCode[key]; ok {
		return code, true
	}
	if code, ok := s.byLabel[key]; ok {
		return code, true
	}
	return "", false
}

// LoanCategory is the closed set of upstream dataset categories.
var LoanCategory = NewEnumSet([]EnumVariant{
	{Code: "COMMERCIAL", Label: "Commercial"},
	{Code: "RETAIL", Label: "Retail"},
})

// CustomerType classifies the borrower.
var CustomerType = NewEnumSet([]EnumVariant{
	{Code: "INDIVIDUAL", Label: "Individual"},
	{Code: "CORPORATE", Label: "Corporate"},
	{Code: "SME", Label: "SME"},
})

// LoanStatusCode is the upstream loan lifecycle code.
var LoanStatusCode = NewEnumSet([]EnumVariant{
	{Code: "ACTIVE", Label: "Active"},
	{Code: "CLOSED", Label: "Closed"},
	{Code: "DEFAULTED", Label: "Defaulted"},
	{Code: "RESTRUCTURED", Label: "Restructured"},
	{Code: "WRITTEN_OFF", Label: "Written Off"},
})

// LoanStatusFlag is a coarser derived status used for reporting, derived
// from LoanStatusCode when absent in the raw row.
var LoanStatusFlag = NewEnumSet([]EnumVariant{
	{Code: "PERFORMING", Label: "Performing"},
	{Code: "NON_PERFORMING", Label: "Non-Performing"},
	{Code: "CLOSED", Label: "Closed"},
})

// DeriveLoanStatusFlag maps a canonical LoanStatusCode to its default
// LoanStatusFlag when the raw row does not carry one explicitly.
func DeriveLoanStatusFlag(statusCode string) string {
	switch statusCode {
	case "ACTIVE", "RESTRUCTURED":
		return "PERFORMING"
	case "DEFAULTED", "WRITTEN_OFF":
		return "NON_PERFORMING"
	case "CLOSED":
		return "CLOSED"
	default:
		return ""
	}
}

// InsuranceIncluded is a tri-state yes/no/unknown flag.
var InsuranceIncluded = NewEnumSet([]EnumVariant{
	{Code: "YES", Label: "Yes"},
	{Code: "NO", Label: "No"},
})

// InstallmentStatus classifies a single payment row.
var InstallmentStatus = NewEnumSet([]EnumVariant{
	{Code: "PAID", Label: "Paid"},
	{Code: "PARTIAL", Label: "Partial"},
	{Code: "UNPAID", Label: "Unpaid"},
	{Code: "WAIVED", Label: "Waived"},
})

// LoanProductType is the upstream product taxonomy.
var LoanProductType = NewEnumSet([]EnumVariant{
	{Code: "TERM_LOAN", Label: "Term Loan"},
	{Code: "REVOLVING", Label: "Revolving"},
	{Code: "OVERDRAFT", Label: "Overdraft"},
	{Code: "LEASING", Label: "Leasing"},
	{Code: "CREDIT_CARD", Label: "Credit Card"},
})

// SyncJobStatus holds internal/syncjob.Status's four codes plus WARNING, a
// reserved code that syncjob never assigns, as an enum set for code/label
// rendering.
var SyncJobStatus = NewEnumSet([]EnumVariant{
	{Code: "PENDING", Label: "Pending"},
	{Code: "IN_PROGRESS", Label: "In Progress"},
	{Code: "SUCCESS", Label: "Success"},
	{Code: "FAILED", Label: "Failed"},
	{Code: "WARNING", Label: "Warning"},
})
