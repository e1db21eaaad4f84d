package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/franz/music-curator/internal/genre"
	"github.com/franz/music-curator/internal/ledger"
	"github.com/franz/music-curator/internal/meta"
	"github.com/franz/music-curator/internal/process"
	"github.com/franz/music-curator/internal/report"
	"github.com/franz/music-curator/internal/resolve"
	"github.com/franz/music-curator/internal/translate"
	"github.com/franz/music-curator/internal/util"
)

// applyLogLevel configures the console logger from the global flags
func applyLogLevel() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// newEventLogger opens a JSONL event log in outputDir, degrading to a
// null logger when the directory cannot be created
func newEventLogger(outputDir string) *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger(outputDir, logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}

// loadLedger opens the processed-files ledger from the global flag
func loadLedger() (*ledger.Ledger, error) {
	path := viper.GetString("ledger")
	lgr, err := ledger.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	util.DebugLog("ledger %s: %d entries", path, lgr.Len())
	return lgr, nil
}

// buildResolver assembles the provider chain in fallback order and
// wraps it in the SQLite cache when one is configured
func buildResolver(cachePath string) (process.MetadataResolver, func(), error) {
	providers := []resolve.Provider{
		resolve.NewYTSearchProvider(GetConfigString("yt-dlp", "yt-dlp")),
		resolve.NewWebSearchProvider(
			GetConfigString("google_api_key", os.Getenv("GOOGLE_API_KEY")),
			GetConfigString("google_cse_id", os.Getenv("GOOGLE_CSE_ID")),
		),
	}

	resolver := resolve.New(providers)
	if cachePath == "" {
		return resolver, func() {}, nil
	}

	cache, err := resolve.OpenCache(cachePath, resolver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open resolve cache: %w", err)
	}
	return cache, func() { cache.Close() }, nil
}

// setupTranslator wires the best-effort transliteration client into
// filename normalization when an endpoint is configured
func setupTranslator() {
	endpoint := viper.GetString("translate_endpoint")
	if endpoint == "" {
		return
	}
	meta.GlobalTranslator = translate.NewClient(
		translate.WithEndpoint(endpoint),
		translate.WithAPIKey(viper.GetString("translate_api_key")),
	)
}

// collectAudioFiles walks root and returns all audio file paths,
// skipping hidden directories and existing genre bucket directories
// at the top level
func collectAudioFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("walk error at %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if name[0] == '.' {
				return filepath.SkipDir
			}
			// Don't descend into already-sorted buckets
			if filepath.Dir(path) == root && genre.IsBucketDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if meta.IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return paths, nil
}

// processorOptions translates the global flags into processor options
func processorOptions(events *report.EventLogger, libraryRoot string) ([]process.ProcessorOption, error) {
	identity, err := util.ParseIdentityMode(viper.GetString("identity"))
	if err != nil {
		return nil, err
	}

	opts := []process.ProcessorOption{
		process.WithEventLogger(events),
		process.WithConflictPolicy(util.GetConflictPolicy()),
		process.WithIdentityMode(identity),
	}
	if libraryRoot != "" {
		opts = append(opts, process.WithLibraryRoot(libraryRoot))
	}
	return opts, nil
}

// summarize converts a batch result into the report structures and
// optionally writes a Markdown report
func summarize(result *process.BatchResult, events *report.EventLogger, source, reportPath string) {
	summary := report.NewBatchSummary(events.BatchID())
	summary.Duration = result.Duration
	summary.ItemsTotal = len(result.Results)
	summary.Enriched = result.Enriched
	summary.Unchanged = result.Unchanged
	summary.Skipped = result.Skipped
	summary.Failed = result.Failed
	summary.SourcePath = source
	summary.LedgerPath = viper.GetString("ledger")
	summary.EventLogPath = events.Path()

	errCounts := make(map[string]int)
	for _, res := range result.Results {
		if res.Bucket != "" {
			summary.BucketCounts[string(res.Bucket)]++
		}
		if res.Err != nil {
			errCounts[res.Err.Error()]++
		}
		if info, err := os.Stat(res.Path); err == nil {
			summary.BytesProcessed += info.Size()
		}
	}
	summary.RecordError(errCounts, 10)

	if reportPath != "" {
		if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
			util.WarnLog("Failed to write report: %v", err)
		} else {
			util.InfoLog("Report: %s", reportPath)
		}
	}

	if !viper.GetBool("quiet") {
		report.PrintSummary(summary)
	}
}
