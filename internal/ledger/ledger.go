// Package ledger persists the set of identity keys that have already
// been processed. It is the single source of truth for "already handled":
// workers consult it before touching a file and append to it after a
// successful enrichment.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/franz/music-curator/internal/util"
)

// Ledger is a mutex-guarded set of processed identity keys with
// write-through persistence. Every MarkDone rewrites the backing file,
// so a crash loses at most the one in-flight item.
type Ledger struct {
	mu   sync.Mutex
	path string
	keys map[string]struct{}
}

// Load opens the ledger at path. A missing backing file is not an
// error: it yields an empty ledger.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		keys: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			util.DebugLog("Ledger file %s absent, starting empty", path)
			return l, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	for _, key := range entries {
		l.keys[key] = struct{}{}
	}

	util.DebugLog("Loaded ledger %s: %d entries", path, len(l.keys))
	return l, nil
}

// Contains reports whether key has already been processed
func (l *Ledger) Contains(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

// MarkDone records key as processed and immediately rewrites the
// backing file. Marking an already-present key is a cheap no-op.
func (l *Ledger) MarkDone(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.keys[key]; ok {
		return nil
	}
	l.keys[key] = struct{}{}

	if err := l.saveLocked(); err != nil {
		// Keep the in-memory entry; the next MarkDone retries the write
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}

// Len returns the number of recorded entries
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// Keys returns all recorded entries in sorted order
func (l *Ledger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortedKeysLocked()
}

// Clear removes every entry and rewrites the backing file
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = make(map[string]struct{})
	return l.saveLocked()
}

// Path returns the backing file location
func (l *Ledger) Path() string {
	return l.path
}

// saveLocked rewrites the backing file. Entries are sorted so repeated
// saves of the same set produce identical, diffable files. The write
// goes through a temp file and rename so readers never see a torn file.
func (l *Ledger) saveLocked() error {
	data, err := json.MarshalIndent(l.sortedKeysLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(l.path)
	if err := util.RetryableMkdirAll(dir, 0755, nil); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tempPath := l.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := util.RetryableRename(tempPath, l.path, nil); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

func (l *Ledger) sortedKeysLocked() []string {
	keys := make([]string, 0, len(l.keys))
	for key := range l.keys {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
