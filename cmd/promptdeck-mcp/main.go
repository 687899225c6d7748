// Package main provides the MCP server entry point for promptdeck.
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
	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/internal/mcp"
	"github.com/thebtf/promptdeck/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	librarySource := flag.String("library", "", "Dataset file or URL (default: settings, then ~/.promptdeck/prompt-library.json)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// MCP uses stdout for communication, so log to stderr
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *librarySource != "" {
		cfg.LibrarySource = *librarySource
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down MCP server")
		cancel()
	}()

	store := library.NewStore(library.Options{
		Source:    cfg.LibrarySource,
		CacheBust: cfg.CacheBust,
		PackDir:   cfg.PackDir,
		Timeout:   cfg.FetchTimeout,
	})
	// A failed first load still serves: every tool reports the load error.
	_, _ = store.Load(ctx)

	server := mcp.NewServer(store, filter.NewEngine(cfg.Locale), Version, cfg.MCPDisabledTools)

	if cfg.WatchLibrary {
		startWatchers(ctx, cfg, server)
	}

	log.Info().Str("library", cfg.LibrarySource).Str("version", Version).Msg("Starting MCP server")
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server error")
	}
}

// startWatchers reloads the library on dataset or pack changes and exits on settings changes.
func startWatchers(ctx context.Context, cfg *config.Config, server *mcp.Server) {
	source := cfg.LibrarySource
	if library.IsRemote(source) {
		source = ""
	}
	if source != "" || cfg.PackDir != "" {
		libraryWatcher, err := watcher.New(source, cfg.PackDir, func(path string) {
			log.Info().Str("path", path).Msg("Library changed on disk, reloading")
			if err := server.Reload(ctx); err != nil {
				log.Warn().Err(err).Msg("Reload failed, keeping previous library")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create library watcher")
		} else if err := libraryWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start library watcher")
		} else {
			go func() {
				<-ctx.Done()
				_ = libraryWatcher.Stop()
			}()
			log.Info().Str("path", source).Str("packs", cfg.PackDir).Msg("Library watcher started")
		}
	}

	// Settings changes take effect on restart; the MCP client respawns the process.
	settingsPath := config.SettingsPath()
	settingsWatcher, err := watcher.New(settingsPath, "", func(string) {
		log.Warn().Str("path", settingsPath).Msg("Settings changed, exiting for restart...")
		time.Sleep(100 * time.Millisecond) // Give logs time to flush
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
		return
	}
	if err := settingsWatcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start settings watcher")
		return
	}
	log.Info().Str("path", settingsPath).Msg("Settings watcher started")
}
