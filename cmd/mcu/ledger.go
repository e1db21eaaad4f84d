package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/music-curator/internal/util"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or reset the processed-files ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List entries in the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLogLevel()

		lgr, err := loadLedger()
		if err != nil {
			return err
		}

		keys := lgr.Keys()
		if len(keys) == 0 {
			util.InfoLog("Ledger is empty: %s", lgr.Path())
			return nil
		}

		for _, key := range keys {
			fmt.Println(key)
		}
		util.InfoLog("%d entries in %s", len(keys), lgr.Path())
		return nil
	},
}

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget all processed files so the next run starts fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLogLevel()

		lgr, err := loadLedger()
		if err != nil {
			return err
		}

		count := lgr.Len()
		if err := lgr.Clear(); err != nil {
			return fmt.Errorf("failed to clear ledger: %w", err)
		}

		util.SuccessLog("Cleared %d entries from %s", count, lgr.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerClearCmd)
}
