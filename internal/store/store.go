package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the database handle the store operates on. *pgxpool.Pool satisfies
// it; tests inject fakes. The handle is passed in explicitly (no package
// globals) so it can be scoped per run and shared by parallel workers.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements idempotent persistence for all pipeline tables.
//
// Merge policy: metadata upserts are merged forward per field (non-null new
// values win, null never clobbers); time-series inserts are DO NOTHING on
// natural-key conflict, so re-running ingestion is safe. The tables' unique
// constraints are the sole concurrency-control mechanism; no operation
// takes a cross-task lock.
type Store struct {
	db     DB
	logger *slog.Logger

	// readTimeout bounds read/aggregation statements so the pipeline
	// cannot stall on the database.
	readTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// New creates a Store on the given handle.
func New(db DB, opts ...Option) *Store {
	s := &Store{
		db:          db,
		logger:      slog.Default(),
		readTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithReadTimeout sets the statement-level timeout for read queries.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// readCtx bounds a read statement with the configured timeout.
func (s *Store) readCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.readTimeout)
}
