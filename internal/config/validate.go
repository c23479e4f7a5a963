package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Ingest.Concurrency < 1 {
		return errors.New("ingest.concurrency must be >= 1")
	}
	if c.Ingest.PageSize < 1 {
		return errors.New("ingest.page_size must be >= 1")
	}
	if c.Ingest.TopHolders < 1 {
		return errors.New("ingest.top_holders must be >= 1")
	}

	switch c.Features.CutoffFallback {
	case "last", "now", "skip":
	default:
		return fmt.Errorf("features.cutoff_fallback must be one of last/now/skip, got %q", c.Features.CutoffFallback)
	}
	if c.Features.MinPoints < 1 {
		return errors.New("features.min_points must be >= 1")
	}

	for i, bc := range c.API.BookCandidates {
		if bc.Path == "" || bc.Param == "" {
			return fmt.Errorf("api.book_candidates[%d]: path and param are required", i)
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
