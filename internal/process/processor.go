package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/franz/music-curator/internal/genre"
	"github.com/franz/music-curator/internal/ledger"
	"github.com/franz/music-curator/internal/meta"
	"github.com/franz/music-curator/internal/report"
	"github.com/franz/music-curator/internal/resolve"
	"github.com/franz/music-curator/internal/util"
)

// Outcome is the terminal state of one processed item
type Outcome string

const (
	// OutcomeEnriched means tags were written, the file was renamed,
	// or it was moved into a bucket
	OutcomeEnriched Outcome = "enriched"
	// OutcomeUnchanged means the file was already complete
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped means the item was not touched (ledger hit,
	// unsupported type, or conflict with skip policy)
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means an operational error stopped processing
	OutcomeFailed Outcome = "failed"
)

// Result describes what happened to one item
type Result struct {
	Path      string
	Outcome   Outcome
	Reason    string
	RenamedTo string
	Bucket    genre.Bucket
	Err       error
}

// MetadataResolver is satisfied by both resolve.Resolver and the
// SQLite-backed resolve.Cache
type MetadataResolver interface {
	Resolve(ctx context.Context, query string) (resolve.Candidate, error)
}

// Processor runs the per-item enrichment pipeline. It is safe for
// concurrent use; destination paths are serialized internally.
type Processor struct {
	ledger       *ledger.Ledger
	resolver     MetadataResolver
	events       *report.EventLogger
	locks        *pathLocks
	libraryRoot  string
	conflicts    util.ConflictPolicy
	identityMode util.IdentityMode
	rename       bool
	writeTags    bool

	fsOnce          sync.Once
	fsCaseSensitive bool
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithLibraryRoot enables moving enriched files into genre bucket
// directories under root
func WithLibraryRoot(root string) ProcessorOption {
	return func(p *Processor) { p.libraryRoot = root }
}

// WithConflictPolicy sets how destination collisions are handled
func WithConflictPolicy(policy util.ConflictPolicy) ProcessorOption {
	return func(p *Processor) { p.conflicts = policy }
}

// WithIdentityMode sets how ledger keys are derived from files
func WithIdentityMode(mode util.IdentityMode) ProcessorOption {
	return func(p *Processor) { p.identityMode = mode }
}

// WithEventLogger attaches a JSONL event logger
func WithEventLogger(events *report.EventLogger) ProcessorOption {
	return func(p *Processor) { p.events = events }
}

// WithoutRename disables filename normalization
func WithoutRename() ProcessorOption {
	return func(p *Processor) { p.rename = false }
}

// WithoutTagWrite disables writing resolved tags back to the file,
// useful when ffmpeg is not installed
func WithoutTagWrite() ProcessorOption {
	return func(p *Processor) { p.writeTags = false }
}

// NewProcessor creates a processor using lgr for idempotency tracking
// and res for metadata lookups
func NewProcessor(lgr *ledger.Ledger, res MetadataResolver, opts ...ProcessorOption) *Processor {
	p := &Processor{
		ledger:       lgr,
		resolver:     res,
		locks:        newPathLocks(),
		conflicts:    util.ConflictSkip,
		identityMode: util.IdentityPath,
		rename:       true,
		writeTags:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessItem runs one file through the pipeline. Panics are caught
// at this boundary so a bad file cannot take down the batch.
func (p *Processor) ProcessItem(ctx context.Context, path string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Path:    path,
				Outcome: OutcomeFailed,
				Reason:  "panic during processing",
				Err:     fmt.Errorf("panic processing %s: %v", path, r),
			}
			p.events.LogError(report.EventError, path, result.Err)
		}
	}()

	if ctx.Err() != nil {
		return Result{Path: path, Outcome: OutcomeFailed, Reason: "canceled", Err: ctx.Err()}
	}

	if !meta.IsAudioFile(path) {
		util.DebugLog("not an audio file, skipping: %s", path)
		p.events.LogSkip(path, "unsupported file type")
		return Result{Path: path, Outcome: OutcomeSkipped, Reason: "unsupported file type"}
	}

	key, err := util.IdentityKey(path, p.identityMode)
	if err != nil {
		return p.fail(path, "identity key", err)
	}

	if p.ledger.Contains(key) {
		util.DebugLog("already processed, skipping: %s", path)
		p.events.LogSkip(path, "already processed")
		return Result{Path: path, Outcome: OutcomeSkipped, Reason: "already processed"}
	}

	// Phase 1: filename normalization
	current := path
	renamedTo := ""
	if p.rename {
		current, renamedTo, err = p.normalizeName(path)
		if err != nil {
			if errors.Is(err, util.ErrConflict) {
				p.events.LogSkip(path, "destination conflict")
				return Result{Path: path, Outcome: OutcomeSkipped, Reason: "destination conflict"}
			}
			return p.fail(path, "rename", err)
		}
	}

	// Phase 2: tag completeness
	tags, err := meta.ReadTags(current)
	if err != nil {
		return p.fail(current, "read tags", err)
	}
	missing := meta.MissingTags(tags)

	enriched := renamedTo != ""
	if len(missing) > 0 && p.resolver != nil {
		filled, ferr := p.fillTags(ctx, current, tags, missing)
		if ferr != nil {
			if errors.Is(ferr, util.ErrUnresolved) {
				// Leave the item off the ledger so a later run with
				// more providers can try again
				util.InfoLog("no metadata found for %s", filepath.Base(current))
				return Result{
					Path:      path,
					Outcome:   OutcomeUnchanged,
					Reason:    "metadata unresolved",
					RenamedTo: renamedTo,
				}
			}
			return p.fail(current, "enrich tags", ferr)
		}
		if filled {
			enriched = true
			// Re-read so classification sees the written values
			tags, err = meta.ReadTags(current)
			if err != nil {
				return p.fail(current, "read tags", err)
			}
		}
	}

	// Phase 3: genre bucket placement
	bucket := genre.Bucket("")
	if p.libraryRoot != "" {
		moved, b, merr := p.moveToBucket(current, tags)
		if merr != nil {
			if errors.Is(merr, util.ErrConflict) {
				p.events.LogSkip(current, "destination conflict")
				return Result{Path: path, Outcome: OutcomeSkipped, Reason: "destination conflict", RenamedTo: renamedTo}
			}
			return p.fail(current, "move to bucket", merr)
		}
		bucket = b
		if moved != "" {
			current = moved
			enriched = true
		}
	}

	// Only completed work enters the ledger. A file that needed
	// nothing stays off it, matching a fresh scan's view of it.
	if !enriched {
		util.DebugLog("nothing to do for %s", filepath.Base(current))
		return Result{Path: path, Outcome: OutcomeUnchanged, RenamedTo: renamedTo, Bucket: bucket}
	}

	// Record completion under the final location's key when identity
	// follows the path
	finalKey := key
	if p.identityMode == util.IdentityPath && current != path {
		finalKey, err = util.IdentityKey(current, p.identityMode)
		if err != nil {
			return p.fail(current, "identity key", err)
		}
	}
	if err := p.ledger.MarkDone(finalKey); err != nil {
		return p.fail(current, "update ledger", err)
	}

	util.SuccessLog("enriched %s", filepath.Base(current))
	return Result{Path: path, Outcome: OutcomeEnriched, RenamedTo: renamedTo, Bucket: bucket}
}

func (p *Processor) fail(path, stage string, err error) Result {
	wrapped := fmt.Errorf("%s: %w", stage, err)
	util.ErrorLog("%s: %v", path, wrapped)
	p.events.LogError(report.EventError, path, wrapped)
	return Result{Path: path, Outcome: OutcomeFailed, Reason: stage, Err: wrapped}
}

// normalizeName renames path to its cleaned form, honoring the
// conflict policy. Returns the current path and the new path if a
// rename happened.
func (p *Processor) normalizeName(path string) (current, renamedTo string, err error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	cleaned := meta.NormalizeFilename(base)
	if cleaned == base || cleaned == "" {
		return path, "", nil
	}

	dest := filepath.Join(dir, cleaned)

	p.locks.Lock(dest)
	defer p.locks.Unlock(dest)

	dest, err = p.resolveConflict(path, dest)
	if err != nil {
		return path, "", err
	}
	if dest == "" {
		return path, "", util.ErrConflict
	}

	if err := util.RetryableRename(path, dest, nil); err != nil {
		return path, "", fmt.Errorf("failed to rename: %w", err)
	}

	util.InfoLog("renamed %s -> %s", base, filepath.Base(dest))
	p.events.LogRename(path, dest)
	return dest, dest, nil
}

// fillTags resolves metadata for the missing tag fields and writes
// them to the file. Reports whether anything was written.
func (p *Processor) fillTags(ctx context.Context, path string, tags map[string]string, missing []string) (bool, error) {
	query := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	start := time.Now()
	candidate, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return false, err
	}
	p.events.LogResolve(path, "", len(candidate), time.Since(start))

	// Only fill gaps; existing tag values win
	fills := make(map[string]string)
	for _, field := range missing {
		if v, ok := candidate[field]; ok && v != "" {
			fills[field] = v
		}
	}
	if len(fills) == 0 {
		return false, util.ErrUnresolved
	}

	if !p.writeTags {
		util.DebugLog("tag writing disabled, resolved %d fields for %s", len(fills), path)
		return false, nil
	}

	if err := meta.WriteTags(path, fills); err != nil {
		p.events.LogEnrich(path, nil, err)
		return false, fmt.Errorf("failed to write tags: %w", err)
	}

	written := make([]string, 0, len(fills))
	for field := range fills {
		written = append(written, field)
	}
	p.events.LogEnrich(path, written, nil)
	return true, nil
}

// moveToBucket classifies the file and moves it into the matching
// genre directory under the library root. Returns the new path, or
// empty when the file is already in place.
func (p *Processor) moveToBucket(path string, tags map[string]string) (string, genre.Bucket, error) {
	signals := []string{tags["genre"], tags["artist"], tags["title"], tags["album"]}
	bucket := genre.Classify(signals)

	p.events.LogClassify(path, string(bucket), tags["genre"])

	bucketDir := filepath.Join(p.libraryRoot, string(bucket))
	dest := filepath.Join(bucketDir, filepath.Base(path))

	p.fsOnce.Do(func() {
		sensitive, err := util.DetectFilesystemCaseSensitivity(p.libraryRoot)
		if err != nil {
			sensitive = true
		}
		p.fsCaseSensitive = sensitive
	})
	if util.PathsEqual(path, dest, p.fsCaseSensitive) {
		return "", bucket, nil
	}

	if err := util.RetryableMkdirAll(bucketDir, 0755, nil); err != nil {
		return "", bucket, fmt.Errorf("failed to create bucket directory: %w", err)
	}

	p.locks.Lock(dest)
	defer p.locks.Unlock(dest)

	dest, err := p.resolveConflict(path, dest)
	if err != nil {
		return "", bucket, err
	}
	if dest == "" {
		return "", bucket, util.ErrConflict
	}

	if err := util.RetryableRename(path, dest, nil); err != nil {
		return "", bucket, fmt.Errorf("failed to move: %w", err)
	}

	util.InfoLog("moved %s -> %s/", filepath.Base(path), string(bucket))
	p.events.LogMove(path, dest, string(bucket))
	return dest, bucket, nil
}

// resolveConflict applies the conflict policy when dest already
// exists. Returns the path to write to, or empty for skip.
func (p *Processor) resolveConflict(src, dest string) (string, error) {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	} else if err != nil {
		return "", fmt.Errorf("failed to stat destination: %w", err)
	}

	switch p.conflicts {
	case util.ConflictOverwrite:
		util.WarnLog("overwriting existing file: %s", dest)
		p.events.LogConflict(src, dest, "overwrite")
		return dest, nil

	case util.ConflictSuffix:
		ext := filepath.Ext(dest)
		stem := strings.TrimSuffix(dest, ext)
		for i := 1; i < 1000; i++ {
			candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				p.events.LogConflict(src, candidate, "suffix")
				return candidate, nil
			}
		}
		return "", fmt.Errorf("no free suffix for %s", dest)

	default: // util.ConflictSkip
		util.WarnLog("destination exists, skipping: %s", dest)
		p.events.LogConflict(src, dest, "skip")
		return "", nil
	}
}
