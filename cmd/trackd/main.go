package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groundtrack/groundtrack/internal/api"
	"github.com/groundtrack/groundtrack/internal/auth"
	"github.com/groundtrack/groundtrack/internal/config"
	"github.com/groundtrack/groundtrack/internal/metrics"
	"github.com/groundtrack/groundtrack/internal/tle"
	"github.com/groundtrack/groundtrack/internal/track"
)

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(os.Getenv("GROUNDTRACK_CONFIG"), bootLogger)
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	store := tle.NewStore()
	cache := tle.NewCache(cfg.Catalog.CacheDir, cfg.Catalog.MaxCacheFiles)
	fetcher := tle.NewFetcher(cfg.Catalog.SourceURL)

	// Warm start from the newest cached catalog, if any.
	if data, ts, err := cache.LoadLatest(); err != nil {
		logger.Info("no catalog cache found, starting empty", "error", err)
	} else {
		entries, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached catalog", "error", err)
		} else if len(entries) > 0 {
			store.Set(tle.NewDataset("cache", ts, entries))
			metrics.SetCatalogSize(len(entries))
			logger.Info("loaded catalog from cache", "count", len(entries), "cached_at", ts.Format(time.RFC3339))
		}
	}

	tracker := track.New(track.Config{
		Workers:    cfg.Track.Workers,
		StaleAfter: cfg.StaleAfter(),
	}, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.HTTPAddr, logger, authCfg, store, tracker, api.Limits{
		MaxSamples:     cfg.Track.MaxSamples,
		MaxStepSeconds: cfg.Track.MaxStepSeconds,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Catalog.FetchOnStart {
		go refreshCatalog(ctx, store, cache, fetcher, logger)
	}

	if cfg.Catalog.RefreshSeconds > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Catalog.RefreshSeconds) * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					refreshCatalog(ctx, store, cache, fetcher, logger)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Background goroutine to update the catalog age gauge.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				age := store.AgeSeconds()
				if age >= 0 {
					metrics.SetCatalogAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"auth_enabled", authCfg.Enabled,
			"fetch_on_start", cfg.Catalog.FetchOnStart,
			"workers", cfg.Track.Workers,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshCatalog fetches the catalog source, parses it, and swaps the new
// dataset into the store. Serialized through the store's fetch lock so
// overlapping refreshes cannot interleave.
func refreshCatalog(ctx context.Context, store *tle.Store, cache *tle.Cache, fetcher *tle.Fetcher, logger *slog.Logger) {
	store.Lock()
	defer store.Unlock()

	data, err := fetcher.Fetch(ctx)
	if err != nil {
		logger.Warn("catalog fetch failed", "error", err, "source", fetcher.SourceURL())
		return
	}

	entries, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		logger.Warn("catalog parse failed", "error", err)
		return
	}
	if len(entries) == 0 {
		logger.Warn("catalog fetch returned no element sets", "source", fetcher.SourceURL())
		return
	}

	now := time.Now().UTC()
	store.Set(tle.NewDataset(fetcher.SourceURL(), now, entries))
	metrics.SetCatalogSize(len(entries))

	if err := cache.Write(data, now); err != nil {
		logger.Warn("catalog cache write failed", "error", err)
	}

	logger.Info("catalog refreshed", "count", len(entries), "source", fetcher.SourceURL())
}
