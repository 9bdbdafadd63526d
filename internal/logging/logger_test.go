package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Skufu/healthtwin/internal/config"
)

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "healthtwin.log")
	log, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("hidden")
	log.Info("analysis completed")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"analysis completed"`) {
		t.Fatalf("expected info entry, got %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("debug entry should be filtered, got %s", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
