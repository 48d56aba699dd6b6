// Package workdir provides utilities for managing the CLI output directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// LogFile is the name of the CLI log inside the output directory.
const LogFile = "repurpose.log"

// Root returns the base directory for CLI output files.
// The path is expanded at runtime to resolve to:
//
//	$HOME/Documents/RizenAi
func Root() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "RizenAi"), nil
}

// Resolve returns explicit when set and Root otherwise.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return Root()
}

// Prep ensures that the directory exists.
func Prep(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", dir, err)
	}

	return nil
}

// OpenLog opens the CLI log in dir for appending. Terminal UIs own stdout,
// so their logs go here instead.
func OpenLog(dir string) (*os.File, error) {
	if err := Prep(dir); err != nil {
		return nil, err
	}

	//nolint:gosec // Log files need to be readable
	f, err := os.OpenFile(filepath.Join(dir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return f, nil
}
