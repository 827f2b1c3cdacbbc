package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	doc := `
server:
  port: "9090"
redis:
  addr: localhost:6379
postgres:
  url: postgres://quiz@localhost/quizdb
quiz:
  questionSeconds: 20
  cacheTTL: 5m
seed:
  path: seed.json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Quiz.QuestionSeconds != 20 {
		t.Fatalf("expected questionSeconds 20, got %d", cfg.Quiz.QuestionSeconds)
	}
	if cfg.Quiz.CacheTTL != "5m" {
		t.Fatalf("expected cacheTTL 5m, got %q", cfg.Quiz.CacheTTL)
	}
	if cfg.Seed.Path != "seed.json" {
		t.Fatalf("expected seed path, got %q", cfg.Seed.Path)
	}
}

func TestTTLDuration(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for empty value, got %v", d)
	}
	if d := TTLDuration("30s", time.Minute); d != 30*time.Second {
		t.Fatalf("expected parsed duration, got %v", d)
	}
	if d := TTLDuration("bogus", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for bad value, got %v", d)
	}
}
