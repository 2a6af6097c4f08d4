package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"loglite/internal/api"
	"loglite/internal/api/handlers"
	"loglite/internal/banner"
	"loglite/internal/config"
	"loglite/internal/database"
	"loglite/internal/database/repositories"
	"loglite/internal/enrichment"
	"loglite/internal/ids"
	"loglite/internal/ingestion"
	"loglite/internal/parser"
	"loglite/internal/retention"
	"loglite/internal/search"

	"github.com/pterm/pterm"
)

func main() {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)

	banner.Print()

	logger.Info("Initializing Loglite...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithCaller().Fatal("Failed to load configuration", logger.Args("error", err))
	}

	logger = pterm.DefaultLogger.WithLevel(logLevelFromString(cfg.LogLevel))
	logger.Debug("Log level set", logger.Args("level", cfg.LogLevel))

	logger.Debug("Configuration loaded",
		logger.Args(
			"db_path", cfg.Database.Path,
			"index_dir", cfg.Search.IndexDir,
			"server_port", cfg.Server.Port,
			"node_id", cfg.Tailer.NodeID,
			"geoip_enabled", cfg.GeoIP.Enabled,
		))

	db, err := database.NewConnection(&database.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLife:  cfg.Database.ConnMaxLife,
	}, logger)
	if err != nil {
		logger.WithCaller().Fatal("Failed to connect to database", logger.Args("error", err))
	}

	logger.Debug("Initializing repositories...")
	appRepo := repositories.NewAppRepository(db)
	sourceRepo := repositories.NewSourceRepository(db)
	offsetRepo := repositories.NewOffsetRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	retentionAttemptRepo := repositories.NewRetentionAttemptRepository(db)

	logger.Debug("Opening search index...", logger.Args("index_dir", cfg.Search.IndexDir))
	index, err := search.Open(cfg.Search.IndexDir)
	if err != nil {
		logger.WithCaller().Fatal("Failed to open search index", logger.Args("error", err))
	}

	allocator, err := ids.New(cfg.Tailer.NodeID)
	if err != nil {
		logger.WithCaller().Fatal("Failed to initialize id allocator", logger.Args("error", err))
	}

	var geoIP *enrichment.GeoIPEnricher
	if cfg.GeoIP.Enabled {
		logger.Debug("Initializing GeoIP enricher...")
		geoIP, err = enrichment.NewGeoIPEnricher(cfg.GeoIP.CityDBPath, logger)
		if err != nil {
			logger.Warn("GeoIP enricher initialization failed, continuing without GeoIP", logger.Args("error", err))
			geoIP = nil
		} else {
			logger.Info("GeoIP enrichment enabled")
		}
	} else {
		logger.Info("GeoIP enrichment disabled by configuration")
	}

	parserRegistry := parser.DefaultRegistry()

	writer := ingestion.NewWriter(eventRepo, allocator, index, logger)

	tailer := ingestion.NewTailer(
		sourceRepo,
		offsetRepo,
		parserRegistry,
		writer,
		time.Duration(cfg.Tailer.IntervalSecs)*time.Second,
		cfg.Performance.WorkerPoolSize,
		geoIP,
		logger,
	)

	collector := retention.NewCollector(
		eventRepo,
		retentionAttemptRepo,
		index,
		time.Duration(cfg.Retention.TTLIntervalSecs)*time.Second,
		time.Duration(cfg.Retention.RetentionDays)*24*time.Hour,
		logger,
	)

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())

	logger.Info("Starting tailer and retention collector...")
	go tailer.Run(backgroundCtx)
	go collector.Run(backgroundCtx)

	logger.Info("Initializing web server...")
	webServer := api.NewServer(
		&api.Config{
			Host:       cfg.Server.Host,
			Port:       cfg.Server.Port,
			Production: cfg.Server.Production,
		},
		handlers.NewAppsHandler(appRepo),
		handlers.NewSourcesHandler(sourceRepo),
		handlers.NewIngestHandler(writer, parserRegistry),
		handlers.NewSearchHandler(index, eventRepo),
		logger,
	)

	go func() {
		if err := webServer.Run(); err != nil {
			logger.WithCaller().Error("Web server error", logger.Args("error", err))
		}
	}()

	logger.Info("Loglite is running",
		logger.Args("url", pterm.Sprintf("http://localhost:%d", cfg.Server.Port)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping services...")

	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Debug("Stopping web server...")
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.WithCaller().Error("Web server shutdown error", logger.Args("error", err))
	} else {
		logger.Info("Web server stopped successfully")
	}

	if err := index.Close(); err != nil {
		logger.Warn("Failed to close search index", logger.Args("error", err))
	}

	if geoIP != nil {
		geoIP.Close()
	}

	logger.Info("Loglite stopped gracefully")
}

func logLevelFromString(level string) pterm.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "info":
		return pterm.LogLevelInfo
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "fatal":
		return pterm.LogLevelFatal
	default:
		return pterm.LogLevelInfo
	}
}
