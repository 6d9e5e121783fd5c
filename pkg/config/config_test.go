package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 20 || cfg.Search.NGramSize != 3 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Search.SnapshotTTL != 30*24*time.Hour {
		t.Errorf("SnapshotTTL = %v, want 720h", cfg.Search.SnapshotTTL)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
search:
  defaultLimit: 5
kafka:
  enabled: true
  workOrderEventsTopic: wo-events
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("Search.DefaultLimit = %d, want 5", cfg.Search.DefaultLimit)
	}
	if cfg.Search.QueryCacheTTL != 5*time.Minute {
		t.Errorf("Search.QueryCacheTTL = %v, want default 5m", cfg.Search.QueryCacheTTL)
	}
	if !cfg.Kafka.Enabled || cfg.Kafka.WorkOrderEvents != "wo-events" {
		t.Errorf("unexpected kafka config: %+v", cfg.Kafka)
	}
	// untouched sections keep defaults
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want default 5432", cfg.Postgres.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TS_POSTGRES_HOST", "db.internal")
	t.Setenv("TS_SERVER_PORT", "7070")
	t.Setenv("TS_KAFKA_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q, want db.internal", cfg.Postgres.Host)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if !cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled should be true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "h", Port: 5432, User: "u", Password: "p",
		Database: "d", SSLMode: "disable",
	}
	want := "host=h port=5432 user=u password=p dbname=d sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
