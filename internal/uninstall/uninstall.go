// Package uninstall removes the tasknotify binary and its per-user data.
package uninstall

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// TargetType represents the type of an uninstall target
type TargetType string

const (
	// TypeBinary indicates the tasknotify binary
	TypeBinary TargetType = "binary"
	// TypeGlobalDir holds config.json and identity.yaml
	TypeGlobalDir TargetType = "global_dir"
	// TypeStateDir holds notification history and the permission decision
	TypeStateDir TargetType = "state_dir"
)

// Target is a file or directory removed during uninstall
type Target struct {
	Path         string
	Type         TargetType
	Description  string
	Exists       bool
	RequiresSudo bool
}

// Result is the outcome of removing one target
type Result struct {
	Target  Target
	Success bool
	Error   error
}

// DetectBinaryLocation returns the absolute path to the running executable
// with symlinks resolved.
func DetectBinaryLocation() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exePath)
}

// RequiresSudo reports whether the parent directory of path is not writable
// by the current user.
func RequiresSudo(path string) bool {
	return unix.Access(filepath.Dir(path), unix.W_OK) != nil
}

// GetTargets lists what uninstall would remove. The state directory is listed
// separately only when it lives outside globalDir.
func GetTargets(binaryPath, globalDir, stateDir string) []Target {
	binaryExists := fileExists(binaryPath)
	targets := []Target{
		{
			Path:         binaryPath,
			Type:         TypeBinary,
			Description:  "tasknotify binary",
			Exists:       binaryExists,
			RequiresSudo: binaryExists && RequiresSudo(binaryPath),
		},
		{
			Path:        globalDir,
			Type:        TypeGlobalDir,
			Description: "configuration and identity",
			Exists:      dirExists(globalDir),
		},
	}

	if stateDir != "" && !within(stateDir, globalDir) {
		targets = append(targets, Target{
			Path:         stateDir,
			Type:         TypeStateDir,
			Description:  "notification history and permission",
			Exists:       dirExists(stateDir),
			RequiresSudo: dirExists(stateDir) && RequiresSudo(stateDir),
		})
	}
	return targets
}

// RemoveTargets removes each existing target and continues past failures.
// Missing targets count as successful.
func RemoveTargets(targets []Target) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		if !target.Exists {
			results = append(results, Result{Target: target, Success: true})
			continue
		}

		var err error
		if target.Type == TypeBinary {
			err = os.Remove(target.Path)
		} else {
			err = os.RemoveAll(target.Path)
		}
		results = append(results, Result{Target: target, Success: err == nil, Error: err})
	}
	return results
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
