package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/daemon"
)

func main() {
	// configuration comes from $BOXSCORE_CONFIG and the environment
	cfg, err := common.LoadConfig("")
	if err != nil {
		common.NewLogger(os.Stderr, "info", "text").Error("config.load.failed", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.LogLevel, "text")
	slog.SetDefault(logger)
	if err := cfg.ValidateForServer(); err != nil {
		logger.Error("config.invalid", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := core.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("daemon.open.failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := daemon.New(app).Run(ctx); err != nil {
		logger.Error("daemon.failed", "error", err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("daemon.stopped")
}
