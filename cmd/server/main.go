package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockbook/backend/internal/alerts"
	"stockbook/backend/internal/cache"
	"stockbook/backend/internal/config"
	"stockbook/backend/internal/httpapi"
	"stockbook/backend/internal/metrics"
	"stockbook/backend/internal/service"
	"stockbook/backend/internal/store"
	"stockbook/backend/internal/store/memory"
	mongostore "stockbook/backend/internal/store/mongo"
	pgstore "stockbook/backend/internal/store/postgres"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid security configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid TIMEZONE")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closers, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("store unavailable; refusing to start with in-memory fallback")
	}

	dashboards := cache.DashboardCache(cache.NoopDashboardCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using noop dashboard cache")
		} else {
			dashboards = redisCache
			closers = append(closers, redisCache.Close)
			log.Info().Msg("cache: redis")
		}
	} else {
		log.Info().Msg("cache: noop")
	}

	svc := service.New(repo, dashboards, service.Options{
		TaxRate:      cfg.TaxRate,
		DashboardTTL: cfg.DashboardCacheTTL(),
		Location:     loc,
	})
	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), cfg.OwnerUsername, cfg.OwnerPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}
	m := metrics.New()
	api := httpapi.New(svc, auth, m, cfg.AllowedOrigin)

	var notifier *alerts.Notifier
	if interval := cfg.StockAlertInterval(); interval > 0 {
		notifier = alerts.NewNotifier(svc, m, interval)
		if err := notifier.Init(loc); err != nil {
			log.Fatal().Err(err).Msg("stock alert scheduler failed to start")
		}
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Str("backend", cfg.StoreBackend).Msg("stockbook backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if notifier != nil {
		notifier.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.TimeFieldFormat = time.RFC3339
	if parsed <= zerolog.DebugLevel {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, []func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		log.Info().Msg("repository: postgres")
		return pg, []func() error{pg.Close}, nil
	case config.BackendMongo:
		mg, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		if err := mg.EnsureIndexes(ctx); err != nil {
			_ = mg.Close(context.Background())
			return nil, nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("repository: mongo")
		return mg, []func() error{func() error { return mg.Close(context.Background()) }}, nil
	default:
		if cfg.SeedDemoData {
			log.Info().Msg("repository: in-memory (demo data)")
			return memory.NewSeeded(), nil, nil
		}
		log.Info().Msg("repository: in-memory")
		return memory.New(), nil, nil
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.OwnerPassword) < 8 {
		return fmt.Errorf("OWNER_PASSWORD must be set and at least 8 characters")
	}
	if cfg.OwnerPassword == cfg.OwnerUsername {
		return fmt.Errorf("OWNER_PASSWORD must differ from OWNER_USERNAME")
	}
	return nil
}
