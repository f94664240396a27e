package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pithecene-io/chunkyard/session"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunkyard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	yaml := `principal: ingest-bot

limits:
  max_chunks: 512
  max_bytes: 67108864
  idle_timeout: 15m

storage:
  backend: s3
  path: my-bucket/uploads
  region: us-east-1
  endpoint: https://example.com
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/chunkyard
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3

auth:
  principals: [ingest-bot, backfill]
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "principal", cfg.Principal, "ingest-bot")

	if cfg.Limits.MaxChunks != 512 || cfg.Limits.MaxBytes != 64<<20 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Limits.IdleTimeout.Duration != 15*time.Minute {
		t.Errorf("idle_timeout = %v, want 15m", cfg.Limits.IdleTimeout.Duration)
	}

	assertEqual(t, "storage.backend", cfg.Storage.Backend, "s3")
	assertEqual(t, "storage.path", cfg.Storage.Path, "my-bucket/uploads")
	assertEqual(t, "storage.region", cfg.Storage.Region, "us-east-1")
	assertEqual(t, "storage.endpoint", cfg.Storage.Endpoint, "https://example.com")
	if !cfg.Storage.S3PathStyle {
		t.Error("expected storage.s3_path_style=true")
	}

	assertEqual(t, "adapter.type", cfg.Adapter.Type, "webhook")
	assertEqual(t, "adapter.url", cfg.Adapter.URL, "https://hooks.example.com/chunkyard")
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("adapter.timeout = %v, want 10s", cfg.Adapter.Timeout.Duration)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 3 {
		t.Error("expected adapter.retries=3")
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Error("expected Authorization header")
	}

	if len(cfg.Auth.Principals) != 2 || cfg.Auth.Principals[1] != "backfill" {
		t.Errorf("auth.principals = %v", cfg.Auth.Principals)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	cfg, err := Load(writeTemp(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "" {
		t.Errorf("expected empty backend, got %q", cfg.Storage.Backend)
	}
	if cfg.SessionLimits() != session.DefaultLimits() {
		t.Errorf("SessionLimits = %+v, want defaults", cfg.SessionLimits())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/chunkyard.yaml")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeTemp(t, "{{invalid yaml")); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CHUNKYARD_ROOT", "/srv/objects")

	cfg, err := Load(writeTemp(t, "storage:\n  backend: ${CHUNKYARD_BACKEND:-fs}\n  path: ${CHUNKYARD_ROOT}\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "storage.backend", cfg.Storage.Backend, "fs")
	assertEqual(t, "storage.path", cfg.Storage.Path, "/srv/objects")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	if _, err := Load(writeTemp(t, "principal: x\nexecutor: ./run.js\n")); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	if _, err := Load(writeTemp(t, "limits:\n  max_chunk: 5\n")); err == nil {
		t.Fatal("expected error for misspelled nested key")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	if _, err := Load(writeTemp(t, "limits:\n  idle_timeout: soon\n")); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero", Config{}, false},
		{"known backend", Config{Storage: StorageConfig{Backend: "redis"}}, false},
		{"unknown backend", Config{Storage: StorageConfig{Backend: "ftp"}}, true},
		{"unknown adapter", Config{Adapter: AdapterConfig{Type: "kafka"}}, true},
		{"negative bytes", Config{Limits: LimitsConfig{MaxBytes: -5}}, true},
		{"negative retries", Config{Adapter: AdapterConfig{Type: "redis", Retries: &negative}}, true},
		{
			"principals and policies",
			Config{Auth: AuthConfig{Principals: []string{"a"}, Policies: []PolicyConfig{{Principal: "b", Actions: []string{"*"}}}}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_AuthPolicies(t *testing.T) {
	yaml := `auth:
  policies:
    - principal: ingest-bot
      actions: [begin, append, finalize]
    - principal: "*"
      actions: [abort]
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Auth.Policies) != 2 {
		t.Fatalf("policies = %+v", cfg.Auth.Policies)
	}
	if p := cfg.Auth.Policies[0]; p.Principal != "ingest-bot" || len(p.Actions) != 3 {
		t.Errorf("first policy = %+v", p)
	}
	assertEqual(t, "policies[1].principal", cfg.Auth.Policies[1].Principal, "*")
}

func TestSessionLimits_Overrides(t *testing.T) {
	cfg := Config{Limits: LimitsConfig{MaxChunks: 8}}
	got := cfg.SessionLimits()
	if got.MaxChunks != 8 || got.MaxBytes != session.DefaultMaxBytes {
		t.Errorf("SessionLimits = %+v", got)
	}
}
