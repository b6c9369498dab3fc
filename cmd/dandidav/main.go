// Command dandidav serves a read-only WebDAV view of the DANDI Archive.
package main

import (
	"context"
	"flag"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dandidav/dandidav-go/internal/config"
	"github.com/dandidav/dandidav-go/internal/dandi"
	"github.com/dandidav/dandidav-go/internal/webdav"
	"github.com/dandidav/dandidav-go/internal/zarrman"
)

const manifestCacheDumpPeriod = 10 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath    = flag.String("config", "", "path to a TOML config file")
		listenAddr    = flag.String("listen", "", "override listen address, e.g. :8080")
		archiveAPIURL = flag.String("archive-api-url", "", "override the DANDI Archive API base URL")
		title         = flag.String("title", "", "override the gateway's display title")
		noZarrman     = flag.Bool("no-zarrman", false, "disable the /zarrs/ manifest-tree subsystem")
	)
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		zerolog.New(os.Stderr).Error().Err(err).Msg("dandidav: failed to load config")
		return 1
	}
	if *noZarrman {
		enabled := false
		cfg.ApplyFlags(*listenAddr, *archiveAPIURL, *title, &enabled)
	} else {
		cfg.ApplyFlags(*listenAddr, *archiveAPIURL, *title, nil)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("config", cfg.String()).Msg("dandidav: starting")

	apiURL, err := url.Parse(cfg.ArchiveAPIURL)
	if err != nil {
		log.Error().Err(err).Str("url", cfg.ArchiveAPIURL).Msg("dandidav: invalid archive API URL")
		return 1
	}
	archive := dandi.New(apiURL, log.With().Str("component", "dandi").Logger())

	var zm *zarrman.Client
	if cfg.ZarrmanEnabled {
		manifestRootURL, err := url.Parse(cfg.ZarrmanRootURL)
		if err != nil {
			log.Error().Err(err).Str("url", cfg.ZarrmanRootURL).Msg("dandidav: invalid zarrman root URL")
			return 1
		}
		zm = zarrman.New(manifestRootURL, cfg.ZarrmanCacheMaxWeight, log.With().Str("component", "zarrman").Logger())
	}

	resolver := webdav.NewResolver(archive, zm)
	dispatcher := webdav.NewDispatcher(resolver, cfg.Title, log.With().Str("component", "dispatcher").Logger())
	router := webdav.NewRouter(dispatcher)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if zm != nil {
		zm.InstallPeriodicDump(ctx, manifestCacheDumpPeriod)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("dandidav: listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("dandidav: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("dandidav: graceful shutdown failed")
			return 1
		}
		return 0
	case err := <-errCh:
		log.Error().Err(err).Msg("dandidav: server exited with error")
		return 1
	}
}
