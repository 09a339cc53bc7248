// Package validation provides input validation utilities for cloudsave.
package validation

import (
	"fmt"
	"strings"
)

// ValidateEntryName validates a folder or file name before it is sent to the
// provider. Names come either from user input (create/rename forms) or from
// provider listings that feed back into mutation calls.
//
// Returns an error if the name:
//   - Is empty or whitespace-only
//   - Contains path separators (/ or \)
//   - Contains null bytes
//   - Is the literal ".."
func ValidateEntryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("name contains null byte: %s", name)
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, '\\') {
		return fmt.Errorf("name cannot contain path separators: %s", name)
	}

	// Path separators are already rejected, so only the literal ".." is
	// left to check; "foo..bar.txt" stays legal.
	if name == ".." {
		return fmt.Errorf("name cannot be '..'")
	}

	return nil
}

// ValidateTaskName validates a scheduled save-task name. Task names become
// keys in the task store, so they follow the same rules as entry names.
func ValidateTaskName(name string) error {
	if err := ValidateEntryName(name); err != nil {
		return fmt.Errorf("invalid task name: %w", err)
	}
	return nil
}
