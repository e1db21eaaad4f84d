package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/music-curator/internal/fetch"
	"github.com/franz/music-curator/internal/process"
	"github.com/franz/music-curator/internal/util"
)

var downloadCmd = &cobra.Command{
	Use:   "download [urls...]",
	Short: "Download tracks with yt-dlp and run them through enrichment",
	Long: `Download tracks as mp3 files into the destination directory.

URLs can be given as arguments or read from a newline-delimited file
with --list. Sources that are private, deleted, or geo-blocked are
reported and skipped; the rest of the batch continues.

Downloaded files are enriched in place unless --no-enrich is set.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("dest", "d", ".", "destination directory for downloads")
	downloadCmd.Flags().String("list", "", "file with one URL per line")
	downloadCmd.Flags().String("cookies", "", "browser cookie export passed to yt-dlp")
	downloadCmd.Flags().String("events-dir", "artifacts", "directory for JSONL event logs")
	downloadCmd.Flags().Bool("no-enrich", false, "download only, skip tag enrichment")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogLevel()

	urls := args
	if listPath, _ := cmd.Flags().GetString("list"); listPath != "" {
		fromFile, err := fetch.ReadURLList(listPath)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given (pass them as arguments or use --list)")
	}

	dest, _ := cmd.Flags().GetString("dest")
	cookies, _ := cmd.Flags().GetString("cookies")

	var fetchOpts []fetch.Option
	if cookies != "" {
		fetchOpts = append(fetchOpts, fetch.WithCookieFile(cookies))
	}
	if binary := GetConfigString("yt-dlp", ""); binary != "" {
		fetchOpts = append(fetchOpts, fetch.WithBinary(binary))
	}
	downloader := fetch.NewDownloader(dest, fetchOpts...)
	if !downloader.Available() {
		return fmt.Errorf("yt-dlp not found in PATH (install from https://github.com/yt-dlp/yt-dlp)")
	}

	eventsDir, _ := cmd.Flags().GetString("events-dir")
	events := newEventLogger(eventsDir)
	defer events.Close()

	util.InfoLog("Downloading %d tracks to %s", len(urls), dest)

	var downloaded []string
	unavailable := 0
	failed := 0
	for _, url := range urls {
		start := time.Now()
		path, err := downloader.Fetch(ctx, url)
		events.LogFetch(url, path, time.Since(start), err)

		if err != nil {
			if errors.Is(err, util.ErrUnavailable) {
				util.WarnLog("source unavailable, skipping: %s", url)
				unavailable++
				continue
			}
			util.ErrorLog("download failed: %v", err)
			failed++
			continue
		}
		downloaded = append(downloaded, path)
	}

	util.SuccessLog("Downloaded %d/%d tracks (%d unavailable, %d failed)",
		len(downloaded), len(urls), unavailable, failed)

	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	if noEnrich || len(downloaded) == 0 {
		if failed > 0 {
			return fmt.Errorf("%d downloads failed", failed)
		}
		return nil
	}

	// Run the fresh downloads through the enrichment pipeline
	lgr, err := loadLedger()
	if err != nil {
		return err
	}

	resolver, closeCache, err := buildResolver(viper.GetString("cache"))
	if err != nil {
		return err
	}
	defer closeCache()

	setupTranslator()

	opts, err := processorOptions(events, viper.GetString("library"))
	if err != nil {
		return err
	}

	processor := process.NewProcessor(lgr, resolver, opts...)
	result := process.RunBatch(ctx, processor, downloaded, viper.GetInt("workers"))

	summarize(result, events, dest, "")

	if failed > 0 || result.Failed > 0 {
		return fmt.Errorf("%d downloads and %d items failed", failed, result.Failed)
	}
	return nil
}
