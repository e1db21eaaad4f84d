package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// IsSameFilesystem checks if two paths are on the same filesystem
// by comparing their device IDs (st_dev).
// Returns (true, nil) if on same filesystem
// Returns (false, nil) if on different filesystems
// Returns (false, err) if paths cannot be stat'd
func IsSameFilesystem(path1, path2 string) (bool, error) {
	stat1, err := os.Stat(path1)
	if err != nil {
		return false, err
	}

	stat2, err := os.Stat(path2)
	if err != nil {
		return false, err
	}

	sysStat1, ok1 := stat1.Sys().(*syscall.Stat_t)
	sysStat2, ok2 := stat2.Sys().(*syscall.Stat_t)

	if !ok1 || !ok2 {
		// If we can't get syscall.Stat_t, assume different filesystems
		// (better to warn when unsure)
		return false, nil
	}

	return sysStat1.Dev == sysStat2.Dev, nil
}

// DetectFilesystemCaseSensitivity probes whether the filesystem holding dir
// treats paths case-sensitively. It creates a temporary mixed-case file and
// checks whether the lowercased name resolves to it.
func DetectFilesystemCaseSensitivity(dir string) (bool, error) {
	probe, err := os.CreateTemp(dir, "CaseProbe-*.tmp")
	if err != nil {
		return false, fmt.Errorf("failed to create probe file: %w", err)
	}
	probePath := probe.Name()
	probe.Close()
	defer os.Remove(probePath)

	lowered := filepath.Join(filepath.Dir(probePath), strings.ToLower(filepath.Base(probePath)))
	if lowered == probePath {
		// Temp name came out all-lowercase; retry with an explicit mixed-case name
		probePath = filepath.Join(dir, "CaseSensitivityProbe.tmp")
		f, err := os.Create(probePath)
		if err != nil {
			return false, fmt.Errorf("failed to create probe file: %w", err)
		}
		f.Close()
		defer os.Remove(probePath)
		lowered = filepath.Join(dir, "casesensitivityprobe.tmp")
	}

	_, err = os.Stat(lowered)
	if err == nil {
		// Lowercased name found the mixed-case file
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, fmt.Errorf("failed to stat probe file: %w", err)
}

// NormalizePath cleans a path, lowercasing it when the target
// filesystem is case-insensitive so collisions compare correctly
func NormalizePath(path string, caseSensitive bool) string {
	cleaned := filepath.Clean(path)
	if caseSensitive {
		return cleaned
	}
	return strings.ToLower(cleaned)
}

// PathsEqual reports whether two paths refer to the same destination
// under the filesystem's case-sensitivity rules
func PathsEqual(path1, path2 string, caseSensitive bool) bool {
	return NormalizePath(path1, caseSensitive) == NormalizePath(path2, caseSensitive)
}
