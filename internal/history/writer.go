package history

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Writer appends entries to the history file with automatic pruning.
// It is safe for concurrent use within one process.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain.
	MaxEntries int

	mu  sync.Mutex
	log zerolog.Logger
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int, log zerolog.Logger) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		log:        log.With().Str("component", "history").Logger(),
	}
}

// Record adds entry to the history file, assigning an ID when it has none.
// An entry whose tag is already recorded replaces the earlier one.
// Errors are non-fatal: they are logged and never reach the caller.
func (w *Writer) Record(entry HistoryEntry) {
	if err := w.Append(entry); err != nil {
		w.log.Warn().Err(err).Str("tag", entry.Tag).Msg("failed to record notification history")
	}
}

// Append adds or replaces entry in the history file and reports failures.
func (w *Writer) Append(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if !history.replace(entry) {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		history.add(entry, w.MaxEntries)
	}
	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}

	return nil
}
