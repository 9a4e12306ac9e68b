// Package state provides persistent state that survives across tasknotify
// runs, such as the desktop notification permission decision.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/notify"
)

// PermissionFileName is the name of the file that stores the permission decision
const PermissionFileName = "permission.json"

// PermissionState records the one-time notification permission decision.
type PermissionState struct {
	// Permission is default, granted or denied
	Permission notify.Permission `json:"permission"`
	// DecidedAt is when the decision was made (zero while default)
	DecidedAt time.Time `json:"decided_at,omitempty"`
}

// LoadPermissionState loads the permission state from the state directory.
// A missing or corrupted file yields the default state.
func LoadPermissionState(stateDir string) (*PermissionState, error) {
	path := filepath.Join(stateDir, PermissionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PermissionState{Permission: notify.PermissionDefault}, nil
		}
		return nil, fmt.Errorf("reading permission state: %w", err)
	}

	var state PermissionState
	if err := json.Unmarshal(data, &state); err != nil || !notify.ValidPermission(string(state.Permission)) {
		return &PermissionState{Permission: notify.PermissionDefault}, nil
	}

	return &state, nil
}

// SavePermissionState persists the state using an atomic write.
// Creates the state directory if it doesn't exist.
func SavePermissionState(stateDir string, state *PermissionState) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling permission state: %w", err)
	}

	path := filepath.Join(stateDir, PermissionFileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// PermissionFile adapts the state directory to notify.PermissionStore.
type PermissionFile struct {
	Dir string
	now func() time.Time
}

// NewPermissionFile returns a store rooted at stateDir.
func NewPermissionFile(stateDir string) *PermissionFile {
	return &PermissionFile{Dir: stateDir, now: time.Now}
}

// LoadPermission implements notify.PermissionStore.
func (f *PermissionFile) LoadPermission() (notify.Permission, error) {
	state, err := LoadPermissionState(f.Dir)
	if err != nil {
		return notify.PermissionDefault, err
	}
	return state.Permission, nil
}

// SavePermission implements notify.PermissionStore.
func (f *PermissionFile) SavePermission(p notify.Permission) error {
	state := &PermissionState{Permission: p}
	if p != notify.PermissionDefault {
		state.DecidedAt = f.now()
	}
	return SavePermissionState(f.Dir, state)
}

// ResetPermission forgets the decision so the next run asks again.
func (f *PermissionFile) ResetPermission() error {
	err := os.Remove(filepath.Join(f.Dir, PermissionFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing permission state: %w", err)
	}
	return nil
}
