// Package identity resolves the signed-in employee. The ID is opaque to
// tasknotify; it is read once at startup and handed to the coordinator.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar is the session-scoped identity source
const EnvVar = "TASKNOTIFY_EMPLOYEE_ID"

// FileName is the persistent identity file under the global directory
const FileName = "identity.yaml"

// ErrNoIdentity is returned by Resolve when no source has an employee ID
var ErrNoIdentity = errors.New("no employee identity")

// Store is one identity source.
type Store interface {
	// Name describes the source for logs and doctor output
	Name() string
	// EmployeeID returns the stored ID, or "" when the source is empty
	EmployeeID() (string, error)
}

// Resolved is the outcome of Resolve.
type Resolved struct {
	EmployeeID string
	Source     string
}

// Resolve returns the first non-empty ID from the flag value and then the
// stores in order. Read errors are skipped so a broken file does not hide a
// later source; they are joined into the error only when nothing resolves.
func Resolve(flag string, stores ...Store) (Resolved, error) {
	if id := strings.TrimSpace(flag); id != "" {
		return Resolved{EmployeeID: id, Source: "flag"}, nil
	}

	var errs []error
	for _, s := range stores {
		id, err := s.EmployeeID()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if id = strings.TrimSpace(id); id != "" {
			return Resolved{EmployeeID: id, Source: s.Name()}, nil
		}
	}
	return Resolved{}, errors.Join(append([]error{ErrNoIdentity}, errs...)...)
}

// EnvStore reads the identity from an environment variable.
type EnvStore struct {
	Var    string
	lookup func(string) (string, bool)
}

// NewEnvStore returns a store reading EnvVar.
func NewEnvStore() *EnvStore {
	return &EnvStore{Var: EnvVar, lookup: os.LookupEnv}
}

// Name implements Store.
func (s *EnvStore) Name() string { return "env " + s.Var }

// EmployeeID implements Store.
func (s *EnvStore) EmployeeID() (string, error) {
	v, _ := s.lookup(s.Var)
	return v, nil
}

// Identity is the persisted identity record.
type Identity struct {
	EmployeeID string    `yaml:"employee_id"`
	Name       string    `yaml:"name,omitempty"`
	SavedAt    time.Time `yaml:"saved_at"`
}

// FileStore persists the identity as YAML.
type FileStore struct {
	Path string
}

// NewFileStore returns a store at dir/identity.yaml.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Path: filepath.Join(dir, FileName)}
}

// Name implements Store.
func (s *FileStore) Name() string { return s.Path }

// EmployeeID implements Store.
func (s *FileStore) EmployeeID() (string, error) {
	id, err := s.Load()
	if err != nil {
		return "", err
	}
	return id.EmployeeID, nil
}

// Load reads the identity file. A missing file is an empty identity.
func (s *FileStore) Load() (Identity, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("reading identity: %w", err)
	}

	var id Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parsing identity: %w", err)
	}
	return id, nil
}

// Save writes id atomically, creating the directory as needed.
func (s *FileStore) Save(id Identity) error {
	if strings.TrimSpace(id.EmployeeID) == "" {
		return fmt.Errorf("saving identity: %w", ErrNoIdentity)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("creating identity directory: %w", err)
	}

	data, err := yaml.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshaling identity: %w", err)
	}

	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("writing temp identity file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp identity file: %w", err)
	}
	return nil
}

// Clear removes the identity file. Clearing an absent file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing identity: %w", err)
	}
	return nil
}
