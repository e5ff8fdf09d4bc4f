package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected default worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("expected default LLM timeout 30s, got %s", cfg.LLMTimeout)
	}
	if cfg.ChatJobsTable != "chat_jobs" {
		t.Errorf("expected default jobs table chat_jobs, got %s", cfg.ChatJobsTable)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected worker count 8, got %d", cfg.WorkerCount)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("expected LLM timeout 5s, got %s", cfg.LLMTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected second origin %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := Load()

	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("expected fallback timeout 30s, got %s", cfg.LLMTimeout)
	}
}
