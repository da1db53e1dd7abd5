package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BrunoDobem/dowloadimg/internal/server"
	"github.com/BrunoDobem/dowloadimg/pkg/progress"
	"github.com/BrunoDobem/dowloadimg/pkg/scraper"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP download service",
	Long: `Start the HTTP service. It accepts download requests, reports the
progress of the active run and serves the downloaded images.

The service handles one download at a time; requests arriving while a
run is active are rejected with a conflict.`,
	Example: `  # Serve on the configured address
  dowloadimg serve

  # Serve on a specific address
  dowloadimg serve --addr :9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		pipeline := scraper.New(cfg, progress.NewTracker(), log)
		srv := server.New(&cfg.Server, pipeline, log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides configuration)")
}
