package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	cfg = Defaults()
	if cfg.BindAddr != ":8080" {
		t.Errorf("expected default bind addr :8080, got %q", cfg.BindAddr)
	}
	if cfg.DatabasePath != "gusar.sqlite3" {
		t.Errorf("expected default database path, got %q", cfg.DatabasePath)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gusar.yaml")
	data := []byte("bindAddr: \":9090\"\ndatabasePath: /tmp/test.sqlite3\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.BindAddr)
	}
	if cfg.DatabasePath != "/tmp/test.sqlite3" {
		t.Errorf("expected overridden database path, got %q", cfg.DatabasePath)
	}
	// Unset fields keep their defaults.
	if cfg.AdminUser != "Admin" {
		t.Errorf("expected default admin user, got %q", cfg.AdminUser)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gusar.yaml")
	if err := os.WriteFile(path, []byte("bindAddr: \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GUSAR_BIND_ADDR", ":7070")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindAddr != ":7070" {
		t.Errorf("expected env override :7070, got %q", cfg.BindAddr)
	}
}

func TestShutdownTimeout(t *testing.T) {
	cfg := Defaults()
	d, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		t.Fatalf("ShutdownTimeoutDuration: %v", err)
	}
	if d != 5*time.Second {
		t.Errorf("expected 5s, got %v", d)
	}

	cfg.ShutdownTimeout = "bogus"
	if _, err := cfg.ShutdownTimeoutDuration(); err == nil {
		t.Error("expected error for bogus duration")
	}
}
