package util

import (
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IdentityMode selects how ledger identity keys are derived
type IdentityMode string

const (
	// IdentityPath keys a file by its absolute path at first processing.
	// Cheap, but a later rename orphans the ledger entry.
	IdentityPath IdentityMode = "path"

	// IdentityContent keys a file by a SHA1 of its content.
	// Survives renames at the cost of reading every file once.
	IdentityContent IdentityMode = "content"
)

// ParseIdentityMode validates an identity mode string
func ParseIdentityMode(s string) (IdentityMode, error) {
	switch IdentityMode(s) {
	case IdentityPath, IdentityContent:
		return IdentityMode(s), nil
	case "":
		return IdentityPath, nil
	}
	return "", fmt.Errorf("%w: unknown identity mode %q", ErrInvalidConfig, s)
}

// IdentityKey derives the ledger key for a file under the given mode
func IdentityKey(path string, mode IdentityMode) (string, error) {
	if mode == IdentityContent {
		return ContentHash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// ContentHash creates a SHA1 hash of file content
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
