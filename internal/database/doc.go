// Package database creates the pgx connection pool used by the archive
// writers.
package database
