// Command server runs the PitchDesk API, the backend for the
// embeddable sales-chat widget.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pitchdesk/pitchdesk/internal/config"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pitchdesk:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, logFormat(cfg.Env))
	logger.Info("starting pitchdesk",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
		"env", cfg.Env,
		"trial_days", cfg.TrialDays,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return srv.Run(context.Background())
}

func logFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "text"
}
