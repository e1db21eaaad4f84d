package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-curator/internal/meta"
	"github.com/franz/music-curator/internal/process"
	"github.com/franz/music-curator/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and enrich new audio files as they appear",
	Long: `Watch the source directory for new audio files and run each one
through the enrichment pipeline once it has finished being written.

Runs until interrupted. Useful as a drop-folder: point your download
tool at the watched directory and files come out tagged and sorted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("source", "s", "", "directory to watch")
	watchCmd.Flags().StringP("library", "l", "", "library root for genre buckets (empty disables sorting)")
	watchCmd.Flags().Duration("settle", 2*time.Second, "how long a file must be quiet before processing")
	watchCmd.Flags().String("events-dir", "artifacts", "directory for JSONL event logs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = "."
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	settle, _ := cmd.Flags().GetDuration("settle")

	setupTranslator()

	lgr, err := loadLedger()
	if err != nil {
		return err
	}

	resolver, closeCache, err := buildResolver(viper.GetString("cache"))
	if err != nil {
		return err
	}
	defer closeCache()

	eventsDir, _ := cmd.Flags().GetString("events-dir")
	events := newEventLogger(eventsDir)
	defer events.Close()

	library, _ := cmd.Flags().GetString("library")
	opts, err := processorOptions(events, library)
	if err != nil {
		return err
	}
	if err := meta.ValidateFFmpeg(); err != nil {
		util.WarnLog("ffmpeg not found in PATH - tags will not be written")
		opts = append(opts, process.WithoutTagWrite())
	}

	processor := process.NewProcessor(lgr, resolver, opts...)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(source); err != nil {
		return fmt.Errorf("failed to watch %s: %w", source, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	util.InfoLog("Watching %s (Ctrl-C to stop)", source)

	// Settled files are handed to workers so a slow metadata lookup
	// never stops the loop from draining watcher events.
	workers := viper.GetInt("workers")
	if workers <= 0 {
		workers = process.DefaultWorkers
	}
	items := make(chan string, 64)
	workerPool := pool.New().WithMaxGoroutines(workers)
	for i := 0; i < workers; i++ {
		workerPool.Go(func() {
			for path := range items {
				util.InfoLog("processing %s", filepath.Base(path))
				res := processor.ProcessItem(ctx, path)
				if res.Outcome == process.OutcomeFailed {
					util.ErrorLog("failed: %v", res.Err)
				}
			}
		})
	}
	drain := func() {
		close(items)
		workerPool.Wait()
	}

	// Paths seen recently, with the time of their last write. A file
	// is queued once it has been quiet for the settle window.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			util.InfoLog("Stopping watch")
			drain()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				drain()
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !meta.IsAudioFile(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				drain()
				return nil
			}
			util.ErrorLog("watch error: %v", err)

		case now := <-ticker.C:
			queueSettled(pending, now, settle, items)
		}
	}
}

// queueSettled hands paths that have been quiet for the settle window
// to the worker queue. The send never blocks; when the queue is full
// the path stays pending and is retried on the next tick.
func queueSettled(pending map[string]time.Time, now time.Time, settle time.Duration, items chan<- string) {
	for path, last := range pending {
		if now.Sub(last) < settle {
			continue
		}
		select {
		case items <- path:
			delete(pending, path)
		default:
		}
	}
}
