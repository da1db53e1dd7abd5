package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BrunoDobem/dowloadimg/pkg/progress"
	"github.com/BrunoDobem/dowloadimg/pkg/scraper"
)

var (
	fetchQuantity int
	fetchOutput   string
	fetchURLsOnly bool
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <query>",
	Short: "Download images for a search query",
	Long: `Search for images matching the query, validate each candidate and save
the results under a folder named after the query. A metadata.json file
in the folder maps every saved image back to its source URL.`,
	Example: `  # Download 5 cat pictures
  dowloadimg fetch "cats" -n 5

  # Download into a specific base directory
  dowloadimg fetch "sunset beach" -n 10 --output ./pictures

  # Resolve source URLs without saving files
  dowloadimg fetch "cats" -n 5 --urls-only`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if fetchOutput != "" {
			cfg.Output.BaseDirectory = fetchOutput
		}
		if fetchURLsOnly {
			cfg.Output.Serverless = true
		}

		query := strings.TrimSpace(strings.Join(args, " "))
		pipeline := scraper.New(cfg, progress.NewTracker(), log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := pipeline.Run(ctx, query, fetchQuantity); err != nil {
			return err
		}

		snap := pipeline.Progress()
		fmt.Println(snap.Message)
		for _, u := range snap.URLs {
			fmt.Println("  " + u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchQuantity, "quantity", "n", 5, "number of images to download")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "base directory for downloads (default: ./downloads)")
	fetchCmd.Flags().BoolVar(&fetchURLsOnly, "urls-only", false, "resolve source URLs without saving files")
}
