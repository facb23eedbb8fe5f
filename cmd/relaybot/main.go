package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/codermrx/relaybot/internal/api"
	"github.com/codermrx/relaybot/internal/config"
	"github.com/codermrx/relaybot/internal/directory"
	"github.com/codermrx/relaybot/internal/handlers"
	"github.com/codermrx/relaybot/internal/repository"
	"github.com/codermrx/relaybot/internal/repository/jsonfile"
	"github.com/codermrx/relaybot/internal/repository/postgres"
	"github.com/codermrx/relaybot/internal/repository/sqlite"
	"github.com/codermrx/relaybot/internal/service"
	"github.com/codermrx/relaybot/internal/telegram"
	"github.com/codermrx/relaybot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	if err := tgbotapi.SetLogger(l); err != nil {
		l.Warnf("Failed to set bot API logger: %v", err)
	}
	l.Info("Starting relaybot...")

	// Primary store
	primary, preparer, closePrimary := openPrimary(cfg, l)
	defer closePrimary()

	// Local mirror
	mirror, err := jsonfile.NewMirror(cfg.DataDir)
	if err != nil {
		l.Fatalf("Failed to prepare data directory: %v", err)
	}
	checkpoint := jsonfile.NewCheckpoint(mirror)

	store := directory.NewStore(primary, mirror, cfg.PrimaryAdminID, l)
	if preparer != nil {
		store.SetPreparer(preparer)
	}
	l.Infof("Directory store: %s", store)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	dir := store.Load(ctx)

	// Telegram client
	client, err := telegram.Connect(ctx, cfg.TelegramToken, cfg.TelegramEndpoint, cfg.PollTimeout, telegram.DefaultPollBackoff, l)
	if errors.Is(err, context.Canceled) {
		l.Info("relaybot stopped before connecting to Telegram")
		return
	}
	if err != nil {
		l.Fatalf("Failed to create Telegram client: %v", err)
	}
	if err := client.DeleteWebhook(); err != nil {
		l.Warnf("Failed to delete webhook: %v", err)
	}

	// Service layer
	svc := service.New(store, l)
	broadcaster := service.NewBroadcaster(client, cfg.BroadcastDelay, l)

	// Router and handlers
	router := telegram.NewRouter(store, client, l)
	if err := handlers.Register(router, handlers.Deps{
		Sender:         client,
		Service:        svc,
		Broadcaster:    broadcaster,
		DonateURL:      cfg.DonateURL,
		SupportContact: cfg.SupportContact,
		Logger:         l,
	}); err != nil {
		l.Fatalf("Invalid handler registration: %v", err)
	}

	// Keep-alive
	if cfg.KeepAliveURL != "" {
		keepAlive, err := service.NewKeepAlive(cfg.KeepAliveURL, cfg.KeepAliveInterval, l)
		if err != nil {
			l.Fatalf("Failed to configure keep-alive: %v", err)
		}
		keepAlive.Start()
		defer keepAlive.Stop()
	}

	// HTTP server for liveness and metrics
	apiServer := api.NewServer(client.Username(), l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("relaybot started successfully")

	// Long polling runs on the main goroutine; it owns the directory.
	poller := telegram.NewPoller(client, router, checkpoint, client, dir, l)
	if err := poller.Run(ctx); err != nil {
		l.Errorf("Bot error: %v", err)
	}

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Warnf("HTTP server shutdown: %v", err)
	}

	if err := store.Save(shutdownCtx, dir); err != nil {
		l.Warnf("Final directory save degraded: %v", err)
	}

	l.Info("relaybot stopped")
}

// openPrimary connects the configured primary store. For postgres the
// returned preparer pings and migrates until the server first answers, and
// the store uses the mirror until then. An empty DATABASE_URL selects
// mirror-only mode.
func openPrimary(cfg *config.Config, l *logrus.Logger) (*repository.Repositories, directory.Preparer, func()) {
	if cfg.DatabaseURL == "" {
		l.Warn("DATABASE_URL is not set, using the local mirror only")
		return nil, nil, func() {}
	}

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg.DatabaseURL, l)
		if err != nil {
			l.Errorf("Failed to open SQLite store, using the local mirror only: %v", err)
			return nil, nil, func() {}
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return sqlite.NewRepositories(db), nil, closeFn

	default:
		db, err := config.NewDatabase(cfg.DatabaseURL, l)
		if err != nil {
			l.Errorf("Failed to open database, using the local mirror only: %v", err)
			return nil, nil, func() {}
		}

		schema := db.Schema(5 * time.Second)
		if err := schema.Prepare(context.Background()); err != nil {
			l.Warnf("Database not ready, falling back to the local mirror until it recovers: %v", err)
		}

		return postgres.NewRepositories(db.DB), schema, func() { db.Close() }
	}
}
