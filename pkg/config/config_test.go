package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("expected default address, got %q", cfg.Server.Address)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Storage.Provider != "local" {
		t.Fatalf("expected local storage, got %q", cfg.Storage.Provider)
	}
}

func TestLoadParsesFileAndFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
storage:
  provider: s3
  s3:
    endpoint: https://minio.internal:9000
    region: us-east-1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.Server.Address)
	}
	if cfg.Storage.Provider != "s3" {
		t.Fatalf("expected s3 provider, got %q", cfg.Storage.Provider)
	}
	if cfg.Storage.S3.Endpoint != "https://minio.internal:9000" {
		t.Fatalf("unexpected endpoint %q", cfg.Storage.S3.Endpoint)
	}
	// Sections absent from the file still get their defaults.
	if cfg.Database.SQLite.Path != "data/edumart.db" {
		t.Fatalf("expected default sqlite path, got %q", cfg.Database.SQLite.Path)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
server:
  adress: ":9000"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  provider: local
  local:
    base_path: data/uploads
`)

	t.Setenv("STORAGE_PROVIDER", "s3")
	t.Setenv("S3_ENDPOINT", "https://s3.example.com")
	t.Setenv("S3_ACCESS_KEY_ID", "AKIAEXAMPLE")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Provider != "s3" {
		t.Fatalf("env override lost, provider %q", cfg.Storage.Provider)
	}
	if cfg.Storage.S3.Endpoint != "https://s3.example.com" {
		t.Fatalf("env override lost, endpoint %q", cfg.Storage.S3.Endpoint)
	}
	if cfg.Storage.S3.AccessKeyID != "AKIAEXAMPLE" {
		t.Fatalf("env override lost, access key %q", cfg.Storage.S3.AccessKeyID)
	}
}

func TestEmptyEnvLeavesFileValue(t *testing.T) {
	path := writeConfig(t, `
storage:
  local:
    base_path: /srv/uploads
`)

	t.Setenv("STORAGE_LOCAL_PATH", "   ")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Local.BasePath != "/srv/uploads" {
		t.Fatalf("blank env must not override, got %q", cfg.Storage.Local.BasePath)
	}
}
