package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtding233/gacha-planner/internal/config"
	"github.com/xtding233/gacha-planner/internal/logging"
	"github.com/xtding233/gacha-planner/internal/server"
	"github.com/xtding233/gacha-planner/internal/telemetry"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, closeLog, err := logging.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatal(err)
	}
	err = run(cfg, logger)
	closeLog()
	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "gachaplan-server", cfg.OTelEndpoint, Version)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown", "err", err)
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
