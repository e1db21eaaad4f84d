package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventFetch    EventType = "fetch"
	EventRename   EventType = "rename"
	EventResolve  EventType = "resolve"
	EventEnrich   EventType = "enrich"
	EventClassify EventType = "classify"
	EventMove     EventType = "move"
	EventSkip     EventType = "skip"
	EventConflict EventType = "conflict"
	EventError    EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the enrichment pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	BatchID   string            `json:"batch_id"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	SrcPath   string            `json:"src_path,omitempty"`
	DestPath  string            `json:"dest_path,omitempty"`
	Bucket    string            `json:"bucket,omitempty"`
	Provider  string            `json:"provider,omitempty"`
	Outcome   string            `json:"outcome,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. Every event carries the
// same batch ID so a run's events can be pulled out of a shared log
// directory.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	batchID  string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate filename with timestamp
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	// Open file for writing
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		batchID:  uuid.NewString(),
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	// Filter by minimum level
	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil // Skip events below minimum level
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.BatchID = l.batchID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogFetch logs a track download event
func (l *EventLogger) LogFetch(url, destPath string, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventFetch,
		DestPath: destPath,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"url": url,
		},
	})
}

// LogRename logs a filename normalization event
func (l *EventLogger) LogRename(srcPath, destPath string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventRename,
		SrcPath:  srcPath,
		DestPath: destPath,
	})
}

// LogResolve logs a metadata provider lookup event
func (l *EventLogger) LogResolve(srcPath, provider string, fieldCount int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventResolve,
		SrcPath:  srcPath,
		Provider: provider,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"fields": fmt.Sprintf("%d", fieldCount),
		},
	})
}

// LogEnrich logs a tag write event
func (l *EventLogger) LogEnrich(srcPath string, written []string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:   level,
		Event:   EventEnrich,
		SrcPath: srcPath,
		Error:   errMsg,
		Extra: map[string]string{
			"tags": fmt.Sprintf("%d", len(written)),
		},
	})
}

// LogClassify logs a genre bucket decision
func (l *EventLogger) LogClassify(srcPath, bucket, signal string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventClassify,
		SrcPath: srcPath,
		Bucket:  bucket,
		Extra: map[string]string{
			"signal": signal,
		},
	})
}

// LogMove logs a file move into a bucket directory
func (l *EventLogger) LogMove(srcPath, destPath, bucket string) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventMove,
		SrcPath:  srcPath,
		DestPath: destPath,
		Bucket:   bucket,
	})
}

// LogSkip logs an item that was skipped with the reason
func (l *EventLogger) LogSkip(srcPath, reason string) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventSkip,
		SrcPath: srcPath,
		Outcome: "skipped",
		Reason:  reason,
	})
}

// LogConflict logs a destination conflict and how it was resolved
func (l *EventLogger) LogConflict(srcPath, destPath, resolution string) error {
	return l.Log(&Event{
		Level:    LevelWarning,
		Event:    EventConflict,
		SrcPath:  srcPath,
		DestPath: destPath,
		Reason:   resolution,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Outcome: "failed",
		Error:   err.Error(),
	})
}

// BatchID returns the run identifier stamped on every event
func (l *EventLogger) BatchID() string {
	if l == nil {
		return ""
	}
	return l.batchID
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
