package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/apireq/internal/config"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", &buf)

	log.DebugObj("hidden", "k", 1)
	log.InfoObj("request executed", "request_result", map[string]any{"status": 200})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line at info level, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["msg"] != "request executed" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	result, ok := entry["request_result"].(map[string]any)
	if !ok || result["status"] != float64(200) {
		t.Fatalf("request_result = %#v", entry["request_result"])
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("chatty", &buf)
	log.DebugObj("hidden", "k", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected debug to be filtered, got %q", buf.String())
	}

	buf.Reset()
	log = New("DEBUG", &buf)
	log.DebugObj("shown", "k", 1)
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug entry, got %q", buf.String())
	}
}

func TestInitUsesConfigLevel(t *testing.T) {
	log, err := Init(&config.Config{LogLevel: "warn"})
	if err != nil || log == nil {
		t.Fatalf("Init: %v", err)
	}
	if S == nil {
		t.Fatalf("expected package logger to be set")
	}
}

func TestNopLoggerSatisfiesInterface(t *testing.T) {
	var log Logger = &NopLogger{}
	log.InfoObj("x", "y", nil)
	log.ErrorObj("x", "y", nil)
}

func TestPackageHelpersWriteThroughS(t *testing.T) {
	var buf bytes.Buffer
	New("debug", &buf)
	DebugObj("package debug", "k", "v")
	ErrorObj("package error", "error", "boom")
	if !strings.Contains(buf.String(), "package debug") || !strings.Contains(buf.String(), "package error") {
		t.Fatalf("expected package helpers to log, got %q", buf.String())
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
