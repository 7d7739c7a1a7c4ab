package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.Path() != filepath.Join(tmpDir, "server.log") {
		t.Errorf("unexpected log path: %s", logger.Path())
	}
	if _, err := os.Stat(logger.Path()); err != nil {
		t.Errorf("server.log was not created: %v", err)
	}
}

func TestEventLoggerLog(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	event := &Event{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Event:     EventScan,
		SongID:    "abc123",
		Path:      "/music/one.flac",
	}
	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	logger.Close()

	content, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("decoding JSONL: %v", err)
	}
	if decoded.SongID != "abc123" || decoded.Path != "/music/one.flac" {
		t.Errorf("unexpected decoded event: %+v", decoded)
	}
}

func TestEventLoggerLevelFilter(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelInfo)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}

	logger.LogScan("id", "/path", 10) // debug, below minLevel
	logger.LogDedup("id", "/kept", "/lost", "lower quality")

	logger.Close()

	content, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	lines := 0
	for _, b := range content {
		if b == '\n' {
			lines++
		}
	}
	if lines != 1 {
		t.Errorf("expected exactly 1 line past the level filter, got %d", lines)
	}
}

func TestEventLoggerNilSafe(t *testing.T) {
	var logger *EventLogger
	logger.LogScan("id", "/path", 0)
	logger.LogError(EventError, "/path", os.ErrNotExist)
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nil logger should be a no-op, got %v", err)
	}
	if logger.Path() != "" {
		t.Errorf("Path on nil logger should be empty")
	}
}

func TestNullLogger(t *testing.T) {
	l := NullLogger()
	if l != nil {
		t.Errorf("NullLogger should return nil")
	}
	l.LogScan("id", "/path", 0)
}
