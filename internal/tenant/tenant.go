package tenant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// slugPattern validates that a tenant slug is lowercase alphanumeric with
// underscores. Slugs are interpolated into ClickHouse staging table names
// elsewhere, so the pattern doubles as the injection guard for that path.
var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Tenant represents an upstream loan-data source this orchestrator pulls
// from. Each tenant exposes a versioned HTTP endpoint for credit and
// payment datasets, authenticated with a bearer token.
type Tenant struct {
	ID uuid.UUID `json:"id"`

	// Slug is the stable identifier used in warehouse partition keys and
	// log fields. Lowercase alphanumeric and underscores only.
	Slug string `json:"slug"`

	// DisplayName is a human-readable label, free of the slug's charset
	// restrictions.
	DisplayName string `json:"display_name"`

	// UpstreamBaseURL is the root of the tenant's data endpoint, e.g.
	// "https://acme.lender.example.com/api".
	UpstreamBaseURL string `json:"upstream_base_url"`

	// UpstreamBearerToken is sent as the Authorization header when this
	// orchestrator calls the tenant's own upstream endpoint. Optional: some
	// tenants' endpoints accept unauthenticated polling.
	UpstreamBearerToken string `json:"-"`

	// APITokenHash is the SHA-256 hex digest of the raw API key presented
	// by the operator trigger client in X-API-Key. The plaintext key is
	// never persisted.
	APITokenHash string `json:"-"`

	// Active controls whether the scheduler considers this tenant for
	// sync. Inactive tenants are skipped without error.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is incremented on every update for optimistic locking.
	Version int `json:"version"`
}

// Validate checks structural invariants on a tenant record.
func (t *Tenant) Validate() error {
	if t.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(t.Slug) > 128 {
		return fmt.Errorf("slug must be <= 128 characters")
	}
	if !slugPattern.MatchString(t.Slug) {
		return fmt.Errorf("slug must be lowercase alphanumeric with underscores")
	}
	if t.DisplayName == "" {
		return fmt.Errorf("display_name is required")
	}
	if t.UpstreamBaseURL == "" {
		return fmt.Errorf("upstream_base_url is required")
	}
	return nil
}

// TenantID returns the identifier sent to the tenant's upstream endpoint
// and written into warehouse partition keys: the slug, uppercased.
func (t *Tenant) TenantID() string {
	return strings.ToUpper(t.Slug)
}

// Clone returns a deep copy of the tenant.
func (t *Tenant) Clone() *Tenant {
	clone := *t
	return &clone
}
