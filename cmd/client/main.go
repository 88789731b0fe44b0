package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Druxys/MTG-Next/internal/client/auth"
	"github.com/Druxys/MTG-Next/internal/client/cardlist"
	"github.com/Druxys/MTG-Next/internal/client/flags"
	"github.com/Druxys/MTG-Next/internal/client/handlers"
	"github.com/Druxys/MTG-Next/internal/client/page"
	"github.com/Druxys/MTG-Next/internal/client/service"
	"github.com/Druxys/MTG-Next/internal/client/storage"
	"github.com/Druxys/MTG-Next/internal/client/ui"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/Druxys/MTG-Next/package/sealer"
)

// cached images older than this are dropped at startup
const imageCacheTTL = 30 * 24 * time.Hour

func main() {
	settings := flags.NewSettings()
	if err := settings.LoadConfig(os.Args[1:]); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log message
	logger := logger.NewLogger(settings.GetLogLevel())
	logger.Info("Welcome to MTG-Next!")

	settings.Watch(func(next flags.Settings) {
		logger.SetLevel(next.GetLogLevel())
		logger.Infof("Config reloaded, log level %s", logger.Level())
	})

	stor, err := storage.NewStorage(settings.GetDB(), logger)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer stor.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := stor.PurgeCardImages(ctx, time.Now().Add(-imageCacheTTL)); err != nil {
		logger.Warningf("Failed to purge image cache: %v", err)
	} else if n > 0 {
		logger.Infof("Purged %d cached images", n)
	}

	api, err := handlers.NewAPIClient(handlers.Options{
		BaseURL:   settings.GetAPIURL(),
		Timeout:   settings.GetRequestTimeout(),
		RateLimit: settings.GetRateLimit(),
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	var seal service.Sealer
	if secret := settings.GetSessionSecret(); secret != "" {
		s, err := sealer.New(secret)
		if err != nil {
			log.Fatalf("Failed to create sealer: %v", err)
		}
		seal = s
	}

	serv := service.NewService(stor, seal, api, logger)
	if !serv.PersistsSessions() {
		logger.Info("No session secret configured, sessions will not be kept between runs")
	}

	session := auth.NewContext(api, serv, logger)
	if err := session.Init(ctx); err != nil {
		logger.Warningf("Failed to restore session: %v", err)
	}

	mode := page.Paged
	if settings.GetFullCatalog() {
		mode = page.FullCatalog
	}
	list := cardlist.NewList(api, logger)
	catalog := cardlist.NewCatalog(api, logger)
	ctrl := page.NewController(list, catalog, session, settings.GetPageSize(), mode, logger)

	// Create new UI instance
	window := ui.NewUI(ctx, ui.Deps{
		Controller: ctrl,
		List:       list,
		Catalog:    catalog,
		Session:    session,
		Creator:    api,
		Images:     serv,
		Debounce:   settings.GetDebounce(),
	}, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Graceful shutdown
	go func() {
		<-sigChan
		logger.Info("Shutting down the client...")

		cancel()
		list.Cancel()
		catalog.Cancel()
		if err := stor.Close(); err != nil {
			logger.Errorf("Failed to close storage: %v", err)
		}

		logger.Info("Client is shut down")
		os.Exit(0)
	}()

	window.RunUI()
}
