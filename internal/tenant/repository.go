package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrTenantNotFound is returned when a tenant doesn't exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantExists is returned when trying to create a tenant with a
	// duplicate slug.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrVersionConflict is returned when an optimistic locking conflict
	// occurs.
	ErrVersionConflict = errors.New("version conflict: tenant was modified by another operation")
)

// ListFilters contains optional filters for listing tenants.
type ListFilters struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository defines the persistence layer for tenant records.
type Repository interface {
	// CreateTenant persists a new tenant. Returns ErrTenantExists if the
	// slug already exists. Populates ID, CreatedAt, UpdatedAt and Version.
	CreateTenant(ctx context.Context, t *Tenant) error

	// GetTenantBySlug retrieves a tenant by its slug.
	GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error)

	// GetTenantByID retrieves a tenant by database primary key.
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetTenantByAPITokenHash looks up the active tenant whose
	// APITokenHash matches hash. Returns ErrTenantNotFound if no active
	// tenant matches.
	GetTenantByAPITokenHash(ctx context.Context, hash string) (*Tenant, error)

	// UpdateTenant modifies an existing tenant using optimistic locking on
	// Version. Returns ErrVersionConflict on concurrent modification.
	UpdateTenant(ctx context.Context, t *Tenant) error

	// ListTenants retrieves tenants matching the given filters.
	ListTenants(ctx context.Context, filters ListFilters) ([]*Tenant, error)

	// ListActiveTenants returns all tenants eligible for scheduling.
	ListActiveTenants(ctx context.Context) ([]*Tenant, error)

	// DeleteTenant permanently removes a tenant record.
	DeleteTenant(ctx context.Context, id uuid.UUID) error
}
