package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoshop/internal/api"
	"autoshop/internal/config"
	"autoshop/internal/database"
	"autoshop/internal/domain"
	"autoshop/internal/events"
	"autoshop/internal/export"
	"autoshop/internal/fixtures"
	"autoshop/internal/google"
	"autoshop/internal/logging"
	"autoshop/internal/metrics"
	"autoshop/internal/notify"
	"autoshop/internal/repository"
	"autoshop/internal/service"
	"autoshop/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := fixtures.Load(cfg.FixturesPath)
	if err != nil {
		logger.Error().Err(err).Str("fixtures_path", cfg.FixturesPath).Msg("load fixtures")
		return err
	}

	db, err := initDatabase(ctx, cfg, f, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	store := initRecordStore(cfg, redisClient, logger)

	eventBus := events.NewEventBus()
	initNotifier(cfg, eventBus, logger)

	var syncWorker domain.SyncWorker
	if sheetsService := initGoogleSheets(ctx, cfg, logger); sheetsService != nil {
		w := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logging.Component(logger, "sheets-worker"))
		go w.Start(ctx)
		syncWorker = w
	}

	go database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup")).Start(ctx)

	metrics.Register()
	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(api.Deps{
		Config:     cfg,
		Store:      store,
		Repo:       db,
		Profiles:   f.ProfileList(),
		EventBus:   eventBus,
		Bookings:   service.NewBookingService(db, eventBus, syncWorker, logging.Component(logger, "booking")),
		Agenda:     service.NewAgendaService(db, logger),
		Catalog:    service.NewCatalogService(db, logger),
		Clients:    service.NewClientService(db, logger),
		Patio:      service.NewPatioService(db, logger),
		Dashboard:  service.NewDashboardService(db, logger),
		Alerts:     service.NewAlertService(db, logger),
		Exporter:   export.NewAgendaExporter(logging.Component(logger, "export")),
		HTTPClient: &http.Client{Timeout: cfg.Identity.Timeout},
		Logger:     logger,
	})

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
		checks := []api.HealthCheck{db.PingContext}
		if redisClient != nil {
			checks = append(checks, func(ctx context.Context) error { return repository.Ping(ctx, redisClient) })
		}
		go grpcServer.Watch(ctx, 0, checks...)
	}

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, f *fixtures.Fixtures, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	if err := db.Seed(ctx, f); err != nil {
		db.Close()
		logger.Error().Err(err).Msg("seed database")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initRecordStore prefers redis so sessions survive restarts; records fall
// back to process memory while redis is unreachable.
func initRecordStore(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) domain.RecordStore {
	memory := repository.NewMemoryRecordStore(cfg.Session.TTL)
	if client == nil {
		logger.Info().Msg("session records kept in memory")
		return memory
	}
	return repository.NewFailoverRecordStore(
		repository.NewRedisRecordStore(client, cfg.Session.TTL),
		memory,
		logging.Component(logger, "records"),
	)
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets row cache not warmed")
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" {
		return
	}

	bot, err := notify.NewBot(cfg.Telegram)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, manager notifications disabled")
		return
	}
	notify.NewManagerNotifier(bot, cfg.Telegram.ManagerChats, logging.Component(logger, "telegram")).Subscribe(bus)
	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.ManagerChats)).Msg("telegram notifications enabled")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 1)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("portal started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("portal stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
