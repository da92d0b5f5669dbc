package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamerhq/streamer/app/api"
	"github.com/streamerhq/streamer/app/cfg"
	"github.com/streamerhq/streamer/app/database"
	"github.com/streamerhq/streamer/app/feed"
	"github.com/streamerhq/streamer/app/hub"
	"github.com/streamerhq/streamer/app/subscription"
	"github.com/streamerhq/streamer/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Streamer server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	subRepo := database.NewSubscriptionRepository(db)
	postRepo := database.NewPostRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	parser := feed.NewParser()

	hubClient := hub.NewClient(httpClient, appCfg.CallbackUrl(), appCfg.VerifyToken, appCfg.UserAgent)

	service := subscription.NewService(subRepo, postRepo, hubClient, httpClient, parser, subscription.Options{
		DefaultHub:          appCfg.DefaultHub,
		AlwaysUseDefaultHub: appCfg.AlwaysUseDefaultHub,
		MaxFetch:            appCfg.MaxFetch,
		UserAgent:           appCfg.UserAgent,
	})

	scheduler := tasks.NewScheduler(service, subRepo, postRepo, httpClient, feed.NewContentExtractor(), tasks.SchedulerOptions{
		WorkerCount:     appCfg.WorkerCount,
		RefreshInterval: appCfg.RefreshInterval,
		MaxTaskRetries:  appCfg.MaxTaskRetries,
		MaxFetch:        appCfg.MaxFetch,
		ExtractContent:  appCfg.ExtractContent,
		UserAgent:       appCfg.UserAgent,
	})
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(subRepo, postRepo, parser, service, scheduler, api.HandlerOptions{
		VerifyToken:         appCfg.VerifyToken,
		VerifyIncomingPosts: appCfg.VerifyIncomingPosts,
		MaxTaskRetries:      appCfg.MaxTaskRetries,
		MaxFetch:            appCfg.MaxFetch,
	})
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "callback_url", appCfg.CallbackUrl())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
