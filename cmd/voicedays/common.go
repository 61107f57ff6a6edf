package main

import (
	"github.com/harunnryd/voicedays/pkg/app"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (app.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return app.LoadConfig(path)
}

// openApp builds the app for one-shot commands, logging to stderr.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.InitLoggerTo(cmd.ErrOrStderr(), logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return app.New(cmd.Context(), cfg, logger)
}
