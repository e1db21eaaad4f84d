package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-curator/internal/process"
	"github.com/franz/music-curator/internal/util"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Sort already-tagged files into genre buckets",
	Long: `Sort audio files into genre bucket directories using the tags
they already carry. No filenames are changed and no metadata is
fetched; this is the offline half of the enrich pipeline.

Files whose tags match none of the known genres land in the Other
bucket.`,
	RunE: runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)

	organizeCmd.Flags().StringP("source", "s", "", "directory of audio files to sort")
	organizeCmd.Flags().StringP("library", "l", "", "library root for genre buckets")
	organizeCmd.Flags().String("events-dir", "artifacts", "directory for JSONL event logs")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogLevel()

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		return fmt.Errorf("source directory is required (use --source/-s)")
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	library, _ := cmd.Flags().GetString("library")
	if library == "" {
		library = source
	}

	lgr, err := loadLedger()
	if err != nil {
		return err
	}

	eventsDir, _ := cmd.Flags().GetString("events-dir")
	events := newEventLogger(eventsDir)
	defer events.Close()

	opts, err := processorOptions(events, library)
	if err != nil {
		return err
	}
	opts = append(opts, process.WithoutRename(), process.WithoutTagWrite())

	// No resolver: sorting uses only the tags on disk
	processor := process.NewProcessor(lgr, nil, opts...)

	paths, err := collectAudioFiles(source)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		util.InfoLog("No audio files found in %s", source)
		return nil
	}

	result := process.RunBatch(ctx, processor, paths, viper.GetInt("workers"))
	summarize(result, events, source, "")

	if result.Failed > 0 {
		return fmt.Errorf("%d items failed", result.Failed)
	}
	return nil
}
