package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/franz/music-curator/internal/util"
)

// BatchSummary aggregates the outcome of one enrichment run
type BatchSummary struct {
	GeneratedAt time.Time
	Duration    time.Duration
	BatchID     string

	ItemsTotal int
	Enriched   int
	Unchanged  int
	Skipped    int
	Failed     int

	BytesProcessed int64

	// Items moved per genre bucket
	BucketCounts map[string]int

	// Most common failure reasons
	TopErrors []ErrorSummary

	SourcePath   string
	LedgerPath   string
	EventLogPath string
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

// NewBatchSummary creates an empty summary stamped with the batch ID
func NewBatchSummary(batchID string) *BatchSummary {
	return &BatchSummary{
		GeneratedAt:  time.Now(),
		BatchID:      batchID,
		BucketCounts: make(map[string]int),
	}
}

// RecordError counts a failure reason for the top-errors table
func (s *BatchSummary) RecordError(errCounts map[string]int, limit int) {
	errors := make([]ErrorSummary, 0, len(errCounts))
	for err, count := range errCounts {
		errors = append(errors, ErrorSummary{Error: err, Count: count})
	}

	// Sort by count (descending), ties by message for stable output
	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}
	s.TopErrors = errors
}

// WriteMarkdownReport writes the summary as Markdown
func WriteMarkdownReport(summary *BatchSummary, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# Music Curator - Batch Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", summary.GeneratedAt.Format("2006-01-02 15:04:05")))
	if summary.BatchID != "" {
		md.WriteString(fmt.Sprintf("**Batch:** `%s`\n\n", summary.BatchID))
	}
	if summary.SourcePath != "" {
		md.WriteString(fmt.Sprintf("**Source:** `%s`\n\n", summary.SourcePath))
	}
	if summary.LedgerPath != "" {
		md.WriteString(fmt.Sprintf("**Ledger:** `%s`\n\n", summary.LedgerPath))
	}
	if summary.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", summary.EventLogPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Items Processed | %d |\n", summary.ItemsTotal))
	md.WriteString(fmt.Sprintf("| Enriched | %d |\n", summary.Enriched))
	md.WriteString(fmt.Sprintf("| Unchanged | %d |\n", summary.Unchanged))
	md.WriteString(fmt.Sprintf("| Skipped | %d |\n", summary.Skipped))
	if summary.Failed > 0 {
		md.WriteString(fmt.Sprintf("| Failed | %d |\n", summary.Failed))
	}
	if summary.BytesProcessed > 0 {
		md.WriteString(fmt.Sprintf("| Data Processed | %s |\n", humanize.Bytes(uint64(summary.BytesProcessed))))
	}
	if summary.Duration > 0 {
		md.WriteString(fmt.Sprintf("| Duration | %s |\n", summary.Duration.Round(time.Second)))
	}
	md.WriteString("\n")

	if len(summary.BucketCounts) > 0 {
		md.WriteString("## 🎵 Genre Buckets\n\n")
		md.WriteString("| Bucket | Items |\n")
		md.WriteString("|--------|-------|\n")

		buckets := make([]string, 0, len(summary.BucketCounts))
		for bucket := range summary.BucketCounts {
			buckets = append(buckets, bucket)
		}
		sort.Strings(buckets)

		for _, bucket := range buckets {
			md.WriteString(fmt.Sprintf("| %s | %d |\n", bucket, summary.BucketCounts[bucket]))
		}
		md.WriteString("\n")
	}

	if len(summary.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range summary.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, err.Error))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by [MCU](https://github.com/franz/music-curator) - Music Curator*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// PrintSummary writes a compact console summary to stdout
func PrintSummary(summary *BatchSummary) {
	width := util.GetTerminalWidth()
	if width > 60 {
		width = 60
	}
	fmt.Println()
	fmt.Println(strings.Repeat("-", width))
	fmt.Println("Batch complete:")
	fmt.Printf("  Enriched:  %d\n", summary.Enriched)
	fmt.Printf("  Unchanged: %d\n", summary.Unchanged)
	fmt.Printf("  Skipped:   %d\n", summary.Skipped)
	if summary.Failed > 0 {
		fmt.Printf("  Failed:    %d\n", summary.Failed)
	}
	if summary.BytesProcessed > 0 {
		fmt.Printf("  Data:      %s\n", humanize.Bytes(uint64(summary.BytesProcessed)))
	}
	if summary.Duration > 0 {
		fmt.Printf("  Duration:  %s\n", summary.Duration.Round(time.Second))
	}
}
