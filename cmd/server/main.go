package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/pushkit/modules/gateway"
	"github.com/dmitrymomot/pushkit/pkg/config"
	"github.com/dmitrymomot/pushkit/pkg/httpserver"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/pg"
	"github.com/dmitrymomot/pushkit/pkg/redis"
	"github.com/dmitrymomot/pushkit/pkg/requestid"
	"github.com/dmitrymomot/pushkit/pkg/webpush"
	"github.com/dmitrymomot/pushkit/svc/app"
	"github.com/dmitrymomot/pushkit/svc/device"
	"github.com/dmitrymomot/pushkit/svc/notifier"
	"github.com/dmitrymomot/pushkit/svc/push"
)

type serviceConfig struct {
	Name        string `env:"SERVICE_NAME" envDefault:"pushkit"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// CacheEnabled turns on the redis credential cache. Off by default so a
	// single-binary deployment needs nothing but Postgres.
	CacheEnabled bool          `env:"APP_CACHE_ENABLED" envDefault:"false"`
	CacheTTL     time.Duration `env:"APP_CACHE_TTL" envDefault:"5m"`

	MaxInFlight int `env:"PUSH_MAX_IN_FLIGHT" envDefault:"32"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("Service terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var svcCfg serviceConfig
	if err := config.Load(&svcCfg); err != nil {
		return fmt.Errorf("load service config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(svcCfg.Environment, svcCfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return fmt.Errorf("load postgres config: %w", err)
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	var cache app.Cache = app.NoOpCache{}
	if svcCfg.CacheEnabled {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return fmt.Errorf("load redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		cache = app.NewRedisCache(client, svcCfg.CacheTTL)
		healthchecks = append(healthchecks, redis.Healthcheck(client))
	}

	appStorage := app.NewPGStorage(pool)
	apps := app.NewService(appStorage, app.WithServiceCache(cache), app.WithServiceLogger(log))
	gate := app.NewGate(appStorage, app.WithGateCache(cache), app.WithGateLogger(log))

	registry := device.NewRegistry(device.NewPGStorage(pool), device.WithRegistryLogger(log))

	var wpCfg webpush.Config
	if err := config.Load(&wpCfg); err != nil {
		return fmt.Errorf("load webpush config: %w", err)
	}
	transport, err := webpush.NewClient(wpCfg)
	if err != nil {
		return fmt.Errorf("create webpush client: %w", err)
	}

	engine := push.NewEngine(registry, transport, push.NewPGStorage(pool),
		push.WithEngineLogger(log),
		push.WithMaxInFlight(svcCfg.MaxInFlight),
	)

	ops := notifier.New(apps, engine, notifier.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, healthchecks...))
	r.Mount("/v1", gateway.Router(gateway.RouterOptions{
		Gate:           gate,
		Apps:           appStorage,
		Engine:         engine,
		Devices:        registry,
		VAPIDPublicKey: wpCfg.VAPIDPublicKey,
		Logger:         log,
	}))

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			ops.NotifyOperators(ctx, "Push service started",
				fmt.Sprintf("%s is up in %s", svcCfg.Name, svcCfg.Environment), nil)
		}),
	)

	return srv.Run(ctx, r)
}
