package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Root != "./storage/chapter_lectures" {
		t.Fatalf("unexpected default storage root: %s", cfg.Storage.Root)
	}
	if cfg.Synthesis.ChunkCharLimit != 2000 {
		t.Fatalf("expected chunk limit 2000, got %d", cfg.Synthesis.ChunkCharLimit)
	}
	if cfg.Synthesis.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Synthesis.MaxAttempts)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lecture-audio.yaml")
	body := `
service_name: lecture-audio-test
storage:
  root: /var/lib/lectures
synthesis:
  mode: mock
  chunk_char_limit: 120
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "lecture-audio-test" {
		t.Fatalf("expected service name override, got %s", cfg.ServiceName)
	}
	if cfg.Storage.Root != "/var/lib/lectures" {
		t.Fatalf("expected storage root override, got %s", cfg.Storage.Root)
	}
	if cfg.Synthesis.Mode != "mock" || cfg.Synthesis.ChunkCharLimit != 120 || cfg.Synthesis.MaxAttempts != 5 {
		t.Fatalf("expected synthesis overrides, got %+v", cfg.Synthesis)
	}
	// Untouched sections keep defaults.
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("expected default http port, got %d", cfg.HTTP.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EDINAI_STORAGE_ROOT", "/tmp/lectures")
	t.Setenv("EDINAI_SYNTHESIS_MODE", "mock")
	t.Setenv("EDINAI_SYNTHESIS_MAX_ATTEMPTS", "4")
	t.Setenv("EDINAI_SYNTHESIS_INITIAL_DELAY_MS", "250")
	t.Setenv("EDINAI_SYNTHESIS_MAX_DELAY_MS", "4000")
	t.Setenv("EDINAI_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("EDINAI_BUS_EMBEDDED", "false")
	t.Setenv("EDINAI_JOB_STORE_PATH", "./tmp.db")
	t.Setenv("EDINAI_JOB_STORE_RETENTION_DAYS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Root != "/tmp/lectures" {
		t.Fatalf("expected storage root override")
	}
	if cfg.Synthesis.Mode != "mock" {
		t.Fatalf("expected synthesis mode override")
	}
	if cfg.Synthesis.MaxAttempts != 4 {
		t.Fatalf("expected max attempts 4, got %d", cfg.Synthesis.MaxAttempts)
	}
	if cfg.Synthesis.InitialDelayMS != 250 || cfg.Synthesis.MaxDelayMS != 4000 {
		t.Fatalf("expected delay overrides, got %+v", cfg.Synthesis)
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
	if cfg.Bus.Embedded {
		t.Fatal("expected embedded override false")
	}
	if cfg.JobStore.Path != "./tmp.db" || cfg.JobStore.RetentionDays != 7 {
		t.Fatalf("expected job store overrides, got %+v", cfg.JobStore)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad synthesis mode", func(c *Config) { c.Synthesis.Mode = "espeak" }},
		{"zero chunk limit", func(c *Config) { c.Synthesis.ChunkCharLimit = 0 }},
		{"zero attempts", func(c *Config) { c.Synthesis.MaxAttempts = 0 }},
		{"max delay below initial", func(c *Config) { c.Synthesis.MaxDelayMS = 10; c.Synthesis.InitialDelayMS = 500 }},
		{"empty storage root", func(c *Config) { c.Storage.Root = "" }},
		{"empty job store path", func(c *Config) { c.JobStore.Path = "" }},
		{"bad http port", func(c *Config) { c.HTTP.Port = 0 }},
		{"no servers external bus", func(c *Config) { c.Bus.Embedded = false; c.Bus.Servers = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
