package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/picccassso/nuptune/internal/store"
)

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	if result.error {
		t.Errorf("SQLite check failed: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected version information in message")
	}
}

func TestCheckStateDatabaseNonExistent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nonexistent.db")

	result := checkStateDatabase(dbPath)

	if result.error {
		t.Errorf("non-existent database check should not error: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected message about database creation")
	}
}

func TestCheckStateDatabaseExisting(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	result := checkStateDatabase(dbPath)
	if result.error {
		t.Errorf("database check failed before creation: %s", result.message)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	db.Close()

	result = checkStateDatabase(dbPath)
	if result.error {
		t.Errorf("database check failed on existing file: %s", result.message)
	}
}

func TestCheckMusicDirectoryValid(t *testing.T) {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	result := checkMusicDirectory(dir)
	if result.error {
		t.Errorf("music directory check failed: %s", result.message)
	}
}

func TestCheckMusicDirectoryNonExistent(t *testing.T) {
	result := checkMusicDirectory("/nonexistent/path/that/does/not/exist")
	if !result.error {
		t.Error("expected error for non-existent directory")
	}
}

func TestCheckMusicDirectoryFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	result := checkMusicDirectory(filePath)
	if !result.error {
		t.Error("expected error when path is a file, not a directory")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	result := checkDiskSpace(dir, "test")
	if result.error {
		t.Errorf("disk space check failed: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected message with disk space info")
	}
}
