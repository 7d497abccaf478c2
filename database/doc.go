// Package database provides connection management for MySQL, PostgreSQL and
// sqlite through Bun, ordered model registration, migrations with optional
// foreign keys and seeders, SQL error classification, query logging hooks,
// and health checks.
package database
