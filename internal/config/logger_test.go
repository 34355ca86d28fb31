package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("production", &buf)

	logger.Debug("hidden")
	logger.Info("generation completed", "area", "lip_filler")

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", line, err)
	}
	if entry["area"] != "lip_filler" {
		t.Errorf("area = %v, want lip_filler", entry["area"])
	}
}

func TestNewLogger_DevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("development", &buf)

	logger.Debug("frame processed", "landmarks", 3)

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") || !strings.Contains(out, "landmarks=3") {
		t.Errorf("unexpected text output: %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("development logs should include source: %q", out)
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dermasim.log")

	logger := NewLoggerWithFile("production", path)
	logger.Info("server started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "server started") {
		t.Errorf("log file missing entry: %q", data)
	}
}
