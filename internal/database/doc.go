// Package database manages the PostgreSQL connection pool and schema
// bootstrap for the pipeline.
package database
