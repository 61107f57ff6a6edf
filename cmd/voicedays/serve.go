package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/harunnryd/voicedays/pkg/app"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool bridge for the configured agent day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if day, _ := cmd.Flags().GetString("day"); day != "" {
				cfg.Agent.Day = day
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			logger := logging.InitLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Serve(ctx, cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("day", "", "Agent day to serve (tutor, commerce, fraud, grocery, game or 4-8)")
	cmd.Flags().String("addr", "", "Listen address, overrides server.addr")
	return cmd
}
