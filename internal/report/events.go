// Package report implements the structured run log (server.log): an
// append-only JSONL stream of pipeline events, independent of the
// colorized console logging in internal/util.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType identifies which stage of the pipeline produced an event.
type EventType string

const (
	EventScan      EventType = "scan"
	EventExtract   EventType = "extract"
	EventDedup     EventType = "dedup"
	EventAlbum     EventType = "album"
	EventChange    EventType = "change"
	EventTranscode EventType = "transcode"
	EventDownload  EventType = "download"
	EventStream    EventType = "stream"
	EventError     EventType = "error"
)

// EventLevel is the event's severity.
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event is a single JSONL record in server.log.
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SongID    string            `json:"song_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	AlbumID   string            `json:"album_id,omitempty"`
	TaskID    string            `json:"task_id,omitempty"`
	Quality   string            `json:"quality,omitempty"`
	Action    string            `json:"action,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Bytes     int64             `json:"bytes,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes Events to a JSONL file, filtering by minimum level.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates server.log under outputDir. minLevel events below
// this severity are dropped rather than written.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, "server.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes event, stamping its timestamp if unset. A nil logger is a
// silent no-op so callers never need to guard construction failures.
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("report: encode event: %w", err)
	}
	return nil
}

// LogScan logs one file visited by the scanner.
func (l *EventLogger) LogScan(songID, path string, sizeBytes int64) {
	_ = l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventScan,
		SongID: songID,
		Path:   path,
		Bytes:  sizeBytes,
	})
}

// LogExtract logs a metadata extraction attempt, successful or not.
func (l *EventLogger) LogExtract(songID, path string, err error) {
	level := LevelDebug
	errMsg := ""
	if err != nil {
		level = LevelWarning
		errMsg = err.Error()
	}
	_ = l.Log(&Event{
		Level:  level,
		Event:  EventExtract,
		SongID: songID,
		Path:   path,
		Error:  errMsg,
	})
}

// LogDedup logs a duplicate resolution: loserPath was dropped in favor of
// the song already kept for the same dedup key.
func (l *EventLogger) LogDedup(songID, keptPath, loserPath, reason string) {
	_ = l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventDedup,
		SongID: songID,
		Path:   keptPath,
		Reason: reason,
		Extra:  map[string]string{"dropped_path": loserPath},
	})
}

// LogAlbum logs an album grouping decision.
func (l *EventLogger) LogAlbum(albumID string, trackCount int) {
	_ = l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventAlbum,
		AlbumID: albumID,
		Extra:   map[string]string{"track_count": fmt.Sprintf("%d", trackCount)},
	})
}

// LogChange logs an incremental change batch being applied.
func (l *EventLogger) LogChange(action, path string) {
	_ = l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventChange,
		Action: action,
		Path:   path,
	})
}

// LogTranscode logs a transcode job, successful or not.
func (l *EventLogger) LogTranscode(songID, quality string, duration time.Duration, err error) {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	_ = l.Log(&Event{
		Level:    level,
		Event:    EventTranscode,
		SongID:   songID,
		Quality:  quality,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
	})
}

// LogDownload logs a download task transitioning state.
func (l *EventLogger) LogDownload(taskID, songID, action string, bytesWritten int64, err error) {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}
	_ = l.Log(&Event{
		Level:  level,
		Event:  EventDownload,
		TaskID: taskID,
		SongID: songID,
		Action: action,
		Bytes:  bytesWritten,
		Error:  errMsg,
	})
}

// LogStream logs an HTTP streaming request for a song.
func (l *EventLogger) LogStream(songID, quality string, bytesWritten int64) {
	_ = l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventStream,
		SongID:  songID,
		Quality: quality,
		Bytes:   bytesWritten,
	})
}

// LogError logs a bare error against an event kind.
func (l *EventLogger) LogError(kind EventType, path string, err error) {
	_ = l.Log(&Event{
		Level: LevelError,
		Event: kind,
		Path:  path,
		Error: err.Error(),
	})
}

// Close flushes and closes server.log.
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the path server.log was opened at.
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a logger whose Log calls are all silent no-ops,
// for callers that want to skip JSONL logging without nil checks.
func NullLogger() *EventLogger {
	return nil
}
