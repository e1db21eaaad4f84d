package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-curator/internal/meta"
	"github.com/franz/music-curator/internal/process"
	"github.com/franz/music-curator/internal/util"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Clean filenames, fill missing tags, and sort into genre buckets",
	Long: `Enrich audio files in the source directory.

Each file goes through three phases:
1. Filename normalization: junk characters are stripped and foreign
   names are transliterated when a translation endpoint is configured
2. Tag completion: missing tags are resolved from online sources
   (yt-dlp search first, then web search when credentials are set)
3. Genre sorting: files are moved into genre bucket directories under
   the library root, when one is given

Files recorded in the ledger are skipped, so interrupted runs can be
restarted safely.`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringP("source", "s", "", "directory of audio files to enrich")
	enrichCmd.Flags().StringP("library", "l", "", "library root for genre buckets (empty disables sorting)")
	enrichCmd.Flags().String("cache", "", "SQLite metadata cache file (empty disables caching)")
	enrichCmd.Flags().String("events-dir", "artifacts", "directory for JSONL event logs")
	enrichCmd.Flags().String("report", "", "write a Markdown batch report to this path")
	enrichCmd.Flags().Bool("no-rename", false, "leave filenames untouched")
	enrichCmd.Flags().Bool("no-tags", false, "resolve metadata but do not write tags")

	viper.BindPFlag("source", enrichCmd.Flags().Lookup("source"))
	viper.BindPFlag("library", enrichCmd.Flags().Lookup("library"))
	viper.BindPFlag("cache", enrichCmd.Flags().Lookup("cache"))
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogLevel()

	source := viper.GetString("source")
	if source == "" {
		return fmt.Errorf("source directory is required (use --source/-s or set in config)")
	}
	if _, err := os.Stat(source); os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	noTags, _ := cmd.Flags().GetBool("no-tags")
	if !noTags {
		if err := meta.ValidateFFmpeg(); err != nil {
			util.WarnLog("ffmpeg not found in PATH - tags will not be written")
			util.WarnLog("Install ffmpeg for tag writing: https://ffmpeg.org/")
			noTags = true
		}
	}

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

	library := viper.GetString("library")
	if library != "" && library != source {
		if same, err := util.IsSameFilesystem(source, library); err == nil && !same {
			util.WarnLog("library %s is on a different filesystem than %s - moves into genre buckets may fail", library, source)
		}
	}
	opts, err := processorOptions(events, library)
	if err != nil {
		return err
	}
	if noRename, _ := cmd.Flags().GetBool("no-rename"); noRename {
		opts = append(opts, process.WithoutRename())
	}
	if noTags {
		opts = append(opts, process.WithoutTagWrite())
	}

	processor := process.NewProcessor(lgr, resolver, opts...)

	paths, err := collectAudioFiles(source)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		util.InfoLog("No audio files found in %s", source)
		return nil
	}

	result := process.RunBatch(ctx, processor, paths, viper.GetInt("workers"))

	reportPath, _ := cmd.Flags().GetString("report")
	summarize(result, events, source, reportPath)

	if result.Failed > 0 {
		return fmt.Errorf("%d items failed", result.Failed)
	}
	return nil
}
