// Package main provides the dashboard entry point for promptdeck.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/config"
	"github.com/thebtf/promptdeck/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	library := flag.String("library", "", "Dataset file or URL (default: settings, then ~/.promptdeck/prompt-library.json)")
	port := flag.Int("port", 0, "Dashboard port (default: settings or 37877)")
	host := flag.String("host", "", "Dashboard bind address (default: 127.0.0.1)")
	watch := flag.Bool("watch", true, "Reload when the dataset or packs change on disk")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	if *library != "" {
		cfg.LibrarySource = *library
	}
	if *port != 0 {
		cfg.WorkerPort = *port
	}
	if *host != "" {
		cfg.WorkerHost = *host
	}
	cfg.WatchLibrary = cfg.WatchLibrary && *watch

	svc := worker.NewService(Version, cfg)
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start dashboard")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutting down dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Dashboard shutdown error")
	}
}
