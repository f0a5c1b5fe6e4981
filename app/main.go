package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hannahlog/rss-reruns/app/api"
	"github.com/hannahlog/rss-reruns/app/cfg"
	"github.com/hannahlog/rss-reruns/app/config"
	"github.com/hannahlog/rss-reruns/app/database"
	"github.com/hannahlog/rss-reruns/app/feed"
	"github.com/hannahlog/rss-reruns/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting RSS Reruns", "version", appConfig.Version)

	profile, err := config.NewLoader(appConfig.ProfilePath).Load()
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}

	if profile.Feed.URL != "" {
		slog.Info("Downloading source feed", "url", profile.Feed.URL, "path", profile.Feed.Path)
		if err := feed.FetchURL(profile.Feed.URL, profile.Feed.Path, appConfig.UserAgent); err != nil {
			log.Fatalf("Failed to download feed: %v", err)
		}
	}

	modifier, err := feed.Open(profile.Feed.Path, profile.Feed.Format)
	if err != nil {
		log.Fatalf("Failed to load feed document: %v", err)
	}
	slog.Info("Feed document loaded", "path", profile.Feed.Path, "format", modifier.Dialect())

	if err := applyProfile(modifier, profile); err != nil {
		log.Fatalf("Failed to apply profile settings: %v", err)
	}

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("History database ready", "path", appConfig.DBPath, "migration_version", version, "dirty", dirty)

	historyRepo := database.NewHistoryRepository(db)
	runner := tasks.NewRunner(feedName(appConfig.ProfilePath), modifier, profile, historyRepo)

	if appConfig.Once || profile.Schedule.Cron == "" {
		reruns, err := runner.RunBatch(profile.Schedule.BatchSize)
		if err != nil {
			log.Fatalf("Rebroadcast failed: %v", err)
		}
		slog.Info("Done", "rebroadcast", len(reruns))
		return
	}

	if err := runner.Start(); err != nil {
		log.Fatalf("Failed to start runner: %v", err)
	}
	defer runner.Stop()

	apiHandler := api.NewHandler(runner, historyRepo)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// applyProfile pushes the profile's settings into the document's embedded
// metadata and recomposes titles.
func applyProfile(modifier *feed.Modifier, profile *config.Profile) error {
	if profile.Schedule.Order != "" {
		if err := modifier.SetOrder(profile.Schedule.Order); err != nil {
			return err
		}
	}
	if profile.Schedule.RunForever != nil {
		if err := modifier.SetRunForever(*profile.Schedule.RunForever); err != nil {
			return err
		}
	}
	if profile.Schedule.Cron != "" {
		if err := modifier.SetRate(profile.Schedule.Cron); err != nil {
			return err
		}
	}
	if _, err := modifier.SetFeedTitle(profile.Titles.Prefix, profile.Titles.Suffix); err != nil {
		return err
	}
	return modifier.SetEntryTitles(profile.Titles.EntryPrefix, profile.Titles.EntrySuffix)
}

// feedName derives a stable name for logging and history rows from the
// profile filename.
func feedName(profilePath string) string {
	base := filepath.Base(profilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
