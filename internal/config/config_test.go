package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppName != "apireq" || cfg.Transport != "resty" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.StorageTTL != 7*24*time.Hour || cfg.StorageCleanupInterval != 12*time.Hour {
		t.Fatalf("unexpected storage durations %v %v", cfg.StorageTTL, cfg.StorageCleanupInterval)
	}
	if cfg.PublishersFile != "" {
		t.Fatalf("publishing should be disabled by default, got %q", cfg.PublishersFile)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APIREQ_TRANSPORT", " NetHTTP ")
	t.Setenv("APIREQ_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("APIREQ_STORAGE_TYPE", "none")
	t.Setenv("APIREQ_PUBLISHERS_FILE", "./configs/publishers.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Transport != "nethttp" {
		t.Fatalf("Transport = %q", cfg.Transport)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.StorageType != "none" || cfg.PublishersFile != "./configs/publishers.yaml" {
		t.Fatalf("unexpected config %#v", cfg)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("APIREQ_REQUEST_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}
