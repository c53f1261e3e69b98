// Package postgres provides PostgreSQL implementations of the store
// interfaces in internal/store, the pgx connection setup, and the embedded
// goose migrations that define the schema.
package postgres
