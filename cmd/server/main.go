package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/4DevsO/qtut-b4a/internal/config"
	"github.com/4DevsO/qtut-b4a/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg *config.Config
		log zerolog.Logger
	)

	root := &cobra.Command{
		Use:          "qtut-gateway",
		Short:        "Entity gateway for users, products and sales",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			log = logger.New(os.Stderr, cfg.Primary.Env, cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve gateway operations over HTTP, WebSocket, TCP and NATS",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), cfg, log)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create tables or indexes for the configured store",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), cfg, log)
			},
		},
	)
	return root
}
