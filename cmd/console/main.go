package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"okhouse/internal/api"
	"okhouse/internal/config"
	"okhouse/internal/console"
	"okhouse/internal/domain"
	"okhouse/internal/events"
	"okhouse/internal/logging"
	"okhouse/internal/metrics"
	"okhouse/internal/models"
	"okhouse/internal/repository"
	"okhouse/internal/reservation"
	"okhouse/internal/service"
	"okhouse/internal/session"

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

	startMetrics(ctx, cfg, &logger)

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	store, storeCloser, err := initTokenStore(cfg, redisClient, &logger)
	if err != nil {
		return err
	}
	if storeCloser != nil {
		defer func() { _ = storeCloser.Close() }()
	}

	gateway, err := api.NewGateway(cfg.API, cfg.Session.Threshold(), &logger)
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}
	reservations := api.NewReservationsClient(gateway)
	if cfg.API.CacheListings && redisClient != nil {
		reservations.UseRedisCache(redisClient, models.ListingCacheTTL*time.Second)
	}

	bus := events.NewEventBus()
	subscribeAudit(bus, &logger)

	controller := session.NewController(api.NewAuthClient(gateway), store, bus, &logger, session.Options{
		MonitorInterval:  cfg.Session.MonitorEvery(),
		RefreshThreshold: cfg.Session.Threshold(),
		PersistKey:       cfg.Session.PersistKey,
		OnLogout: func(reason string) {
			if reason != session.ReasonManual {
				fmt.Fprintln(os.Stdout, "\n세션이 만료되었습니다. 다시 로그인해주세요.")
			}
		},
	})
	gateway.RegisterSession(controller)
	defer controller.StopMonitor()

	if identity, err := controller.Restore(ctx); err == nil {
		logger.Info().Int64("admin_id", identity.ID).Msg("session restored")
		fmt.Fprintf(os.Stdout, "%s님으로 로그인되어 있습니다.\n", identity.Name)
	} else {
		logger.Debug().Err(err).Msg("no session to restore")
	}

	validator := reservation.NewValidator(cfg.Reservation.MinNights, cfg.Reservation.MaxNights)
	shell := console.NewShell(
		controller,
		service.NewAdminService(reservations, controller, bus, &logger),
		service.NewBookingService(reservations, validator, bus, &logger),
		cfg.Export.Path,
		os.Stdout,
	)

	logger.Info().Str("base_url", cfg.API.BaseURL).Str("store", cfg.Session.Store).Msg("console started")
	err = shell.Run(ctx, os.Stdin)
	logger.Info().Msg("console stopped")
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "console-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		// Kept anyway: the failover store retries it later.
		logger.Warn().Err(err).Msg("redis connection failed")
		return client
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initTokenStore picks the persisted slot backend. Redis falls back to
// memory while it is unreachable.
func initTokenStore(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (domain.TokenStore, io.Closer, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		storeLogger := logging.Component(logger, "token-store")
		return repository.NewFailoverTokenStore(
			repository.NewRedisTokenStore(redisClient, 0),
			repository.NewMemoryTokenStore(),
			storeLogger,
		), nil, nil
	case config.StoreSQLite:
		store, err := repository.NewSQLiteTokenStore(cfg.Storage.SQLitePath)
		if err != nil {
			logger.Error().Err(err).Str("sqlite_path", cfg.Storage.SQLitePath).Msg("open token store")
			return nil, nil, err
		}
		return store, store, nil
	default:
		return repository.NewMemoryTokenStore(), nil, nil
	}
}

// subscribeAudit logs session and reservation events.
func subscribeAudit(bus *events.EventBus, logger *zerolog.Logger) {
	audit := logging.Component(logger, "audit")
	handler := func(e *events.Event) error {
		audit.Info().Str("event", e.Type).RawJSON("payload", e.Payload).Time("at", e.CreatedAt).Msg("event")
		return nil
	}
	for _, t := range []string{
		events.EventSessionLoggedIn,
		events.EventSessionRefreshed,
		events.EventSessionLoggedOut,
		events.EventReservationCreated,
		events.EventReservationStatusChanged,
		events.EventReservationDeleted,
	} {
		bus.Subscribe(t, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
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
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
