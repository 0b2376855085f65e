package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Fatalf("expected level parse error")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "stradmind.log")
	logger, err := New("info", path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Printf("frame %s opened\n", "frame-1")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "frame frame-1 opened") {
		t.Fatalf("log file missing entry: %s", data)
	}
}

func TestPrintfLogsAtInfo(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := Wrap(zap.New(core)).Named("server")
	logger.Printf("listening on %s", "127.0.0.1:8000")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Message != "listening on 127.0.0.1:8000" || entries[0].LoggerName != "server" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Printf("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
	if logger.Zap() == nil {
		t.Fatalf("Zap() on nil logger should return a nop logger")
	}
}
