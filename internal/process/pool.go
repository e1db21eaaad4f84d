package process

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"

	"github.com/franz/music-curator/internal/util"
)

// DefaultWorkers is the batch concurrency used when none is configured
const DefaultWorkers = 4

// BatchResult aggregates the outcomes of one batch run
type BatchResult struct {
	Results   []Result
	Enriched  int
	Unchanged int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// RunBatch processes paths concurrently with a bounded worker pool.
// Item failures are isolated: one bad file never stops the batch.
func RunBatch(ctx context.Context, processor *Processor, paths []string, workers int) *BatchResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	total := len(paths)
	util.InfoLog("Processing %d items with %d workers", total, workers)

	start := time.Now()

	var processed atomic.Int64
	var enriched atomic.Int64
	var unchanged atomic.Int64
	var skipped atomic.Int64
	var failed atomic.Int64

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("enriching"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	// Periodic progress lines for non-interactive runs
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	if bar == nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-progressCtx.Done():
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						percentage := float64(p) / float64(total) * 100
						util.InfoLog("Progress: %d/%d (%.1f%%) - enriched: %d, unchanged: %d, skipped: %d, failed: %d",
							p, total, percentage, enriched.Load(), unchanged.Load(), skipped.Load(), failed.Load())
					}
				}
			}
		}()
	}

	var mu sync.Mutex
	results := make([]Result, 0, total)

	items := make(chan string)
	workerPool := pool.New().WithMaxGoroutines(workers)
	for i := 1; i <= workers; i++ {
		i := i
		workerPool.Go(func() {
			wlog := util.NewWorkerLog(i)
			for path := range items {
				wlog.Debugf("processing %s", filepath.Base(path))
				res := processor.ProcessItem(ctx, path)
				wlog.Debugf("%s: %s", filepath.Base(path), res.Outcome)

				processed.Add(1)
				switch res.Outcome {
				case OutcomeEnriched:
					enriched.Add(1)
				case OutcomeUnchanged:
					unchanged.Add(1)
				case OutcomeSkipped:
					skipped.Add(1)
				case OutcomeFailed:
					failed.Add(1)
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				if bar != nil {
					bar.Add(1)
				}
			}
		})
	}
	for _, path := range paths {
		items <- path
	}
	close(items)
	workerPool.Wait()

	cancelProgress()
	if bar != nil {
		bar.Finish()
	}

	result := &BatchResult{
		Results:   results,
		Enriched:  int(enriched.Load()),
		Unchanged: int(unchanged.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}

	util.SuccessLog("Batch complete: %d enriched, %d unchanged, %d skipped, %d failed in %s",
		result.Enriched, result.Unchanged, result.Skipped, result.Failed, result.Duration.Round(time.Second))

	return result
}
