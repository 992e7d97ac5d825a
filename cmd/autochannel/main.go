package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/vovakirdan/autochannel/internal/app"
	"github.com/vovakirdan/autochannel/internal/config"
	"github.com/vovakirdan/autochannel/internal/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		logLevel   = flag.String("log-level", "", "override configured log level")
	)
	flag.Parse()

	bootLogger := log.New("info")
	cfg, path, err := config.Load(bootLogger, *configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Str("path", path).Msg("load config")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("addr", cfg.Query.Addr).Msg("starting autochannel bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialize")
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("engine exited with error")
	}
	logger.Info().Msg("stopped")
}
