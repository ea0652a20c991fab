// Package database owns the process-wide Bun connection: configuration,
// connection pooling and health checks for postgres, mysql and sqlite, query
// hooks, table migrations for registered models, and SQL file seeding.
package database
