package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jaxxstorm/loansync/internal/schema"
)

// identifierPattern bounds the characters permitted in a tenant slug or
// loan category before either is interpolated into a SQL identifier
// position (table/partition names) that the ClickHouse driver cannot
// parameterize. Everything else that reaches the driver goes through
// normal parameter binding.
var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidateIdentifier rejects any tenant slug or loan category that is not
// safe to interpolate into a staging/partition table name.
func ValidateIdentifier(field, value string) error {
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("invalid %s %q: must match ^[a-z0-9_]+$", field, value)
	}
	return nil
}

// StagingTableName returns the deterministic staging table name for a
// (tenant, category, role) triple: stg_<tenant>_<category>_<role>.
func StagingTableName(tenantSlug, category string, role string) (string, error) {
	tenantSlug = strings.ToLower(tenantSlug)
	category = strings.ToLower(category)
	if err := ValidateIdentifier("tenant slug", tenantSlug); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("loan category", category); err != nil {
		return "", err
	}
	return fmt.Sprintf("stg_%s_%s_%s", tenantSlug, category, role), nil
}

// BaseTableName returns the permanent warehouse table name for a role,
// the target of every partition swap.
func BaseTableName(role schema.TableRole) string {
	switch role {
	case schema.RoleCredits:
		return "credits_all"
	case schema.RolePayments:
		return "payments_all"
	default:
		return ""
	}
}
