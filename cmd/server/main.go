// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Query logic lives in internal/trust.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nintynick/transitive-trust-sub001/internal/audit"
	"github.com/nintynick/transitive-trust-sub001/internal/changefeed"
	"github.com/nintynick/transitive-trust-sub001/internal/platform/config"
	"github.com/nintynick/transitive-trust-sub001/internal/platform/httpserver"
	kafkaconsumer "github.com/nintynick/transitive-trust-sub001/internal/platform/kafka/consumer"
	"github.com/nintynick/transitive-trust-sub001/internal/platform/logger"
	platformmetrics "github.com/nintynick/transitive-trust-sub001/internal/platform/metrics"
	platformredis "github.com/nintynick/transitive-trust-sub001/internal/platform/redis"
	"github.com/nintynick/transitive-trust-sub001/internal/principal"
	memorystore "github.com/nintynick/transitive-trust-sub001/internal/storage/memory"
	"github.com/nintynick/transitive-trust-sub001/internal/storage/postgres"
	httptransport "github.com/nintynick/transitive-trust-sub001/internal/transport/http"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/cache"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/engine"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/handler"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/hierarchy"
	trustmetrics "github.com/nintynick/transitive-trust-sub001/internal/trust/metrics"
	"github.com/nintynick/transitive-trust-sub001/internal/trust/ports"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg := engineConfig(cfg.Engine)

	// Graph store: Postgres when configured, in-memory otherwise.
	var (
		store    ports.GraphStore
		notifier ports.ChangeNotifier
		forest   *hierarchy.Forest
		ready    func(context.Context) error
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		forest, err = postgres.LoadDomains(ctx, pool)
		if err != nil {
			log.Error("domain load failed", "error", err)
			os.Exit(1)
		}
		store = postgres.NewGraphStore(pool, forest)
		ready = pool.Ping
	} else {
		forest = hierarchy.New()
		memStore := memorystore.NewGraphStore(forest)
		store = memStore
		notifier = memStore
		log.Warn("no postgres configured, using in-memory graph store")
	}

	// Result cache: Redis when configured, in-memory otherwise.
	var resultCache cache.ResultCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		resultCache = cache.NewRedisCache(redisClient.Client, engineCfg.CacheTTL, cache.WithRedisLogger(log))
	} else {
		resultCache = cache.NewInMemoryCache(cache.WithTTL(engineCfg.CacheTTL))
	}

	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore)
	engineMetrics := trustmetrics.New()

	svc, err := engine.New(store, forest, resultCache, engineCfg,
		engine.WithLogger(log),
		engine.WithMetrics(engineMetrics),
		engine.WithAuditPublisher(publisher),
	)
	if err != nil {
		log.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	// Changefeed: Kafka when configured, otherwise local change signals from
	// the in-memory store (if that is the backend).
	if len(cfg.Kafka.Brokers) > 0 {
		feed := changefeed.NewHandler(log)
		consumer, err := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{cfg.Kafka.Topic},
		}, feed, log)
		if err != nil {
			log.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("changefeed stopped", "error", err)
			}
		}()
		notifier = feed
	}
	defer attachInvalidation(svc, notifier, log, engineCfg.CacheTTL)()

	resolver := principal.NewResolver(cfg.Server.JWTVerificationKey, "trustgraph", "trustgraph")
	trustHandler := handler.New(svc, log)
	router := httptransport.NewRouter(httptransport.Deps{
		Trust:    trustHandler,
		Resolver: resolver,
		Metrics:  platformmetrics.New(),
		Ready:    ready,
	}, log)

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting trustgraph", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// attachInvalidation subscribes the engine cache to graph change signals.
// Running without a notifier (Postgres backend, no Kafka changefeed) means
// nothing signals graph mutations, so cached results can be stale for a full
// TTL after a write; that deserves a loud warning at startup.
func attachInvalidation(svc *engine.Service, notifier ports.ChangeNotifier, log *slog.Logger, ttl time.Duration) func() {
	if notifier == nil {
		log.Warn("no change notifier configured, cache invalidation disabled",
			"staleness_bound", ttl)
		return func() {}
	}
	return svc.AttachInvalidation(notifier)
}

// engineConfig overlays environment overrides on the engine defaults.
func engineConfig(overrides config.Engine) engine.Config {
	cfg := engine.DefaultConfig()
	if overrides.DecayFactor > 0 {
		cfg.DecayFactor = overrides.DecayFactor
	}
	if overrides.InheritanceDiscount > 0 {
		cfg.InheritanceDiscount = overrides.InheritanceDiscount
	}
	if overrides.DefaultMaxDepth > 0 {
		cfg.DefaultMaxDepth = overrides.DefaultMaxDepth
	}
	if overrides.HardMaxDepth > 0 {
		cfg.HardMaxDepth = overrides.HardMaxDepth
	}
	if overrides.QueryTimeout > 0 {
		cfg.QueryTimeout = overrides.QueryTimeout
	}
	if overrides.CacheTTL > 0 {
		cfg.CacheTTL = overrides.CacheTTL
	}
	return cfg
}
