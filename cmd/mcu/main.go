package main

import (
	"fmt"
	"os"

	"github.com/franz/music-curator/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mcu",
		Short: "Music Curator - download, tag, and organize your music collection",
		Long: `mcu (Music Curator) is an idempotent batch enricher for audio files.
It cleans up filenames, fills in missing tags from online sources, and
sorts tracks into genre buckets. A persisted ledger makes every run
resumable: files already handled are skipped.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/mcu.yaml)")
	rootCmd.PersistentFlags().String("ledger", "processed_files.json", "processed-files ledger path")
	rootCmd.PersistentFlags().String("identity", "path", "how files are identified in the ledger: path or content")
	rootCmd.PersistentFlags().String("on-conflict", "skip", "destination conflict policy: skip, suffix, or overwrite")
	rootCmd.PersistentFlags().IntP("workers", "w", 4, "number of concurrent workers")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("ledger", rootCmd.PersistentFlags().Lookup("ledger"))
	viper.BindPFlag("identity", rootCmd.PersistentFlags().Lookup("identity"))
	viper.BindPFlag("on-conflict", rootCmd.PersistentFlags().Lookup("on-conflict"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("mcu")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("MCU")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
