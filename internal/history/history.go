// Package history records every task notification the coordinator raised,
// delivered or not, in a YAML file under the state directory.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the name of the history file.
	HistoryFileName = "history.yaml"
	// BackupSuffix is the suffix for backup files when corruption is detected.
	BackupSuffix = ".backup"
	// DefaultMaxEntries caps the history file.
	DefaultMaxEntries = 500
)

// Status constants for history entries.
const (
	// StatusDelivered means the desktop notification was raised.
	StatusDelivered = "delivered"
	// StatusSkipped means the notification was suppressed (permission or config).
	StatusSkipped = "skipped"
	// StatusFailed means the notification backend returned an error.
	StatusFailed = "failed"
)

// HistoryEntry represents a single notification record.
type HistoryEntry struct {
	// ID is a unique identifier of the record.
	ID string `yaml:"id"`
	// Tag is the notification tag; unique per task and emission time.
	Tag string `yaml:"tag"`
	// Kind is the urgency class: deadline_today or overdue.
	Kind string `yaml:"kind"`
	// TaskID identifies the task.
	TaskID string `yaml:"task_id"`
	// TaskName is the task's display name at emission time.
	TaskName string `yaml:"task_name,omitempty"`
	// DaysOverdue is set for overdue notifications.
	DaysOverdue int `yaml:"days_overdue,omitempty"`
	// EmittedAt is when the poller emitted the event.
	EmittedAt time.Time `yaml:"emitted_at"`
	// PollerID is the poller that emitted the event.
	PollerID string `yaml:"poller_id,omitempty"`
	// Status is delivered, skipped or failed.
	Status string `yaml:"status"`
	// Error describes why the notification was skipped or failed.
	Error string `yaml:"error,omitempty"`
}

// HistoryFile represents the YAML file containing all history entries.
type HistoryFile struct {
	// Entries is ordered oldest first.
	Entries []HistoryEntry `yaml:"entries"`
}

func historyPath(stateDir string) string {
	return filepath.Join(stateDir, HistoryFileName)
}

// LoadHistory reads the history in stateDir. A missing file is an empty
// history; an unparseable one is moved aside to history.yaml.backup and
// replaced by an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	path := historyPath(stateDir)
	history := &HistoryFile{Entries: []HistoryEntry{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return history, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	if err := yaml.Unmarshal(data, history); err != nil {
		if err := os.Rename(path, path+BackupSuffix); err != nil {
			return nil, fmt.Errorf("backing up corrupted history file: %w", err)
		}
		return &HistoryFile{Entries: []HistoryEntry{}}, nil
	}
	if history.Entries == nil {
		history.Entries = []HistoryEntry{}
	}
	return history, nil
}

// SaveHistory replaces the history in stateDir atomically, creating the
// directory if needed.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, HistoryFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), historyPath(stateDir)); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// ClearHistory removes all entries from the history file.
func ClearHistory(stateDir string) error {
	return SaveHistory(stateDir, &HistoryFile{Entries: []HistoryEntry{}})
}

// add appends entry and drops the oldest entries beyond max (max <= 0 keeps all).
func (h *HistoryFile) add(entry HistoryEntry, max int) {
	h.Entries = append(h.Entries, entry)
	if max > 0 && len(h.Entries) > max {
		h.Entries = h.Entries[len(h.Entries)-max:]
	}
}

// replace overwrites the newest entry with the same tag, keeping its ID
// unless entry has one. It reports whether an entry was replaced.
func (h *HistoryFile) replace(entry HistoryEntry) bool {
	if entry.Tag == "" {
		return false
	}
	for i := len(h.Entries) - 1; i >= 0; i-- {
		if h.Entries[i].Tag != entry.Tag {
			continue
		}
		if entry.ID == "" {
			entry.ID = h.Entries[i].ID
		}
		h.Entries[i] = entry
		return true
	}
	return false
}

// Query selects history entries. Empty fields match everything.
type Query struct {
	Status string
	TaskID string
	// Limit caps the result; <= 0 returns all matches.
	Limit int
}

// Find returns the entries matching q, newest first.
func (h *HistoryFile) Find(q Query) []HistoryEntry {
	var out []HistoryEntry
	for i := len(h.Entries) - 1; i >= 0; i-- {
		e := h.Entries[i]
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		if q.TaskID != "" && e.TaskID != q.TaskID {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// Recent returns up to limit entries, newest first. limit <= 0 returns all.
func (h *HistoryFile) Recent(limit int) []HistoryEntry {
	return h.Find(Query{Limit: limit})
}
