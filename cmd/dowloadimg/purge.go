package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrunoDobem/dowloadimg/pkg/progress"
	"github.com/BrunoDobem/dowloadimg/pkg/scraper"
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all downloaded images and cached results",
	Long: `Delete the entire downloads directory, including every query folder and
metadata document, and clear the cached search results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		pipeline := scraper.New(cfg, progress.NewTracker(), log)
		if err := pipeline.Purge(); err != nil {
			return err
		}

		fmt.Println("downloads cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
