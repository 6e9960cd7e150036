package database

import "context"

// Provider abstracts the metadata store backing tenant and sync job
// state. Concrete implementations wrap a PostgreSQL pgxpool or a SQLite
// sqlx.DB; callers that need the raw handle type-assert the value
// returned by Pool.
type Provider interface {
	// Pool returns the underlying connection pool or database handle:
	// *pgxpool.Pool for the PostgreSQL provider, *sqlx.DB for SQLite.
	Pool() interface{}

	// Health reports whether the store can currently serve queries.
	Health(ctx context.Context) error

	// Close releases the provider's connections.
	Close()
}
