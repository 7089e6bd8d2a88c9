package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SHOPLIST_BACKEND", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != "0.0.0.0:3000" {
		t.Fatalf("expected default address 0.0.0.0:3000, got %s", cfg.Address())
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Client.Backend != BackendRemote {
		t.Fatalf("expected remote backend, got %q", cfg.Client.Backend)
	}
	if cfg.Client.ToastTime != 2500*time.Millisecond || cfg.Client.FadeTime != 500*time.Millisecond {
		t.Fatalf("unexpected toast timings: %v / %v", cfg.Client.ToastTime, cfg.Client.FadeTime)
	}
	if cfg.Database.URL == "" {
		t.Fatal("expected database url to be derived")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "1m")
	t.Setenv("BUFFER_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
	if cfg.Context.RequestTimeout != 7*time.Second {
		t.Errorf("expected 7s request timeout, got %v", cfg.Context.RequestTimeout)
	}
	if cfg.Context.ShutdownTimeout != time.Minute {
		t.Errorf("expected 1m shutdown timeout, got %v", cfg.Context.ShutdownTimeout)
	}
	if !cfg.Buffer.Enabled {
		t.Error("expected buffer enabled")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestGetHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	if got := getInt("X_INT", 4); got != 4 {
		t.Errorf("getInt fallback = %d", got)
	}
	if got := getBool("X_BOOL", true); !got {
		t.Errorf("getBool fallback = %v", got)
	}
	if got := getDuration("X_DUR", time.Second); got != time.Second {
		t.Errorf("getDuration fallback = %v", got)
	}
}
