// Package testdb provides helpers for tests that run against a real
// PostgreSQL database. Tests using it are skipped unless a database URL is
// configured in the environment.
package testdb
