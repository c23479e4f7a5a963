package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
instance:
  id: test-1
database:
  postgres:
    host: localhost
    name: polydata
    user: poly
    password: secret
`

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	if cfg.Instance.ID != "test-1" {
		t.Errorf("Instance.ID = %q, want test-1", cfg.Instance.ID)
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Postgres.Host = %q, want localhost", cfg.Database.Postgres.Host)
	}
}

func TestDefaults(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	if cfg.API.GammaURL != DefaultGammaURL {
		t.Errorf("GammaURL = %q, want default", cfg.API.GammaURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("Timeout = %v, want %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Port = %d, want %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Features.CutoffFallback != "last" {
		t.Errorf("CutoffFallback = %q, want last", cfg.Features.CutoffFallback)
	}
	if cfg.Features.MinPoints != 3 {
		t.Errorf("MinPoints = %d, want 3", cfg.Features.MinPoints)
	}
	if got := len(cfg.API.BookCandidates); got != 6 {
		t.Errorf("BookCandidates = %d entries, want 6", got)
	}
	if cfg.API.BookCandidates[0].Path != "book" || cfg.API.BookCandidates[0].Param != "token_id" {
		t.Errorf("first candidate = %+v, want book/token_id", cfg.API.BookCandidates[0])
	}
	if cfg.Ingest.StatementTimeout != 5*time.Second {
		t.Errorf("StatementTimeout = %v, want 5s", cfg.Ingest.StatementTimeout)
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	path := writeConfig(t, `
instance:
  id: test-1
database:
  postgres:
    host: localhost
    name: polydata
    user: poly
    password: ${TEST_DB_PASSWORD}
`)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}
	if cfg.Database.Postgres.Password != "s3cret" {
		t.Errorf("Password = %q, want s3cret", cfg.Database.Postgres.Password)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *PipelineConfig) { c.Instance.ID = "" },
			wantErr: "instance.id",
		},
		{
			name:    "missing db host",
			mutate:  func(c *PipelineConfig) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host",
		},
		{
			name:    "bad cutoff fallback",
			mutate:  func(c *PipelineConfig) { c.Features.CutoffFallback = "never" },
			wantErr: "cutoff_fallback",
		},
		{
			name: "empty book candidate",
			mutate: func(c *PipelineConfig) {
				c.API.BookCandidates = []BookCandidate{{Path: "book"}}
			},
			wantErr: "book_candidates",
		},
		{
			name:    "bad metrics port",
			mutate:  func(c *PipelineConfig) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("LoadWithDefaults: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatal("Load() = nil, want error")
	}
}
