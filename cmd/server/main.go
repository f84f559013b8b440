// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"factgate/internal/audit"
	claimsService "factgate/internal/claims/service"
	claimsStore "factgate/internal/claims/store"
	"factgate/internal/pipeline"
	"factgate/internal/platform/config"
	"factgate/internal/platform/httpserver"
	"factgate/internal/platform/logger"
	platformMetrics "factgate/internal/platform/metrics"
	platformRedis "factgate/internal/platform/redis"
	rlConfig "factgate/internal/ratelimit/config"
	rlMetrics "factgate/internal/ratelimit/metrics"
	rlMiddleware "factgate/internal/ratelimit/middleware"
	rlService "factgate/internal/ratelimit/service"
	rlStore "factgate/internal/ratelimit/store"
	"factgate/internal/reasoner"
	"factgate/internal/respcache"
	trendingMetrics "factgate/internal/trending/metrics"
	trendingService "factgate/internal/trending/service"
	trendingStore "factgate/internal/trending/store"
	httptransport "factgate/internal/transport/http"
	"factgate/internal/verdicts/aivalidate"
	verdictsService "factgate/internal/verdicts/service"
	verdictsStore "factgate/internal/verdicts/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared infrastructure. Both Redis and Postgres are optional: absent
	// configuration selects in-memory fallbacks so the service still runs.
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-memory stores", "error", err.Error())
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
	}

	var (
		claimsSt  claimsStore.Store
		verdictSt verdictsStore.Store
		topicSt   trendingStore.TopicStore
	)
	if pool != nil {
		claimsSt = claimsStore.NewPostgresStore(pool)
		verdictSt = verdictsStore.NewPostgresStore(pool)
		topicSt = trendingStore.NewPostgresTopicStore(pool)
	} else {
		claimsSt = claimsStore.NewInMemoryStore()
		verdictSt = verdictsStore.NewInMemoryStore()
		topicSt = trendingStore.NewInMemoryTopicStore()
	}

	var counters rlStore.CounterStore
	var cacheStore respcache.Store
	memCounters := rlStore.NewInMemoryCounterStore()
	if redisClient != nil {
		counters = rlStore.NewRedisCounterStore(redisClient.Client)
		cacheStore = respcache.NewRedisStore(redisClient.Client)
	} else {
		counters = memCounters
		cacheStore = respcache.NewMemoryStore()
	}

	// Audit pipeline: channel-fed worker, optional Kafka fan-out.
	auditStore := audit.NewInMemoryStore()
	auditSvc := audit.New(audit.WithLogger(log))
	var auditSink audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
	}
	auditWorker := audit.NewWorker(auditStore, auditSvc.Inbox(), auditSink, log)

	// Rate limiting.
	limitCfg := rlConfig.DefaultConfig()
	limitCfg.TrustedCIDRs = cfg.TrustedCIDRs
	limiter, err := rlService.New(counters,
		rlService.WithLogger(log),
		rlService.WithConfig(limitCfg),
		rlService.WithMetrics(rlMetrics.New()),
		rlService.WithAuditor(auditSvc),
	)
	if err != nil {
		log.Error("failed to build rate limiter", "error", err.Error())
		os.Exit(1)
	}
	limitMW := rlMiddleware.New(limiter, log)

	// Domain services.
	claimsSvc, err := claimsService.New(claimsSt, claimsService.WithLogger(log))
	if err != nil {
		log.Error("failed to build claims service", "error", err.Error())
		os.Exit(1)
	}
	verdictsSvc, err := verdictsService.New(verdictSt, claimsSvc, verdictsService.WithLogger(log))
	if err != nil {
		log.Error("failed to build verdicts service", "error", err.Error())
		os.Exit(1)
	}

	var rsn reasoner.Client
	if cfg.Reasoner.APIKey != "" {
		rsn, err = reasoner.NewOpenAIClient(cfg.Reasoner)
		if err != nil {
			log.Error("failed to build reasoner client", "error", err.Error())
			os.Exit(1)
		}
	} else {
		log.Warn("no reasoner API key configured, using static verdicts")
		rsn = reasoner.NewStaticClient()
	}
	validator := aivalidate.New(log, rsn.ModelVersion())

	cache := respcache.New(cacheStore)
	pipe, err := pipeline.New(ctx, claimsSvc, verdictsSvc, validator, rsn,
		pipeline.WithLogger(log),
		pipeline.WithCache(cache),
		pipeline.WithAudit(auditSvc),
	)
	if err != nil {
		log.Error("failed to build pipeline", "error", err.Error())
		os.Exit(1)
	}

	trendingSvc, err := trendingService.New(topicSt, claimsSt,
		trendingService.WithLogger(log),
		trendingService.WithMetrics(trendingMetrics.New()),
	)
	if err != nil {
		log.Error("failed to build trending service", "error", err.Error())
		os.Exit(1)
	}

	// Transport.
	metrics := platformMetrics.New()
	healthChecks := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		healthChecks["redis"] = redisClient
	}
	if pool != nil {
		healthChecks["postgres"] = pgHealth{pool}
	}
	router := httptransport.NewRouter(httptransport.Deps{
		Claims:    httptransport.NewClaimsHandler(pipe, claimsSvc, cache, cfg.ClaimCacheTTL, log, metrics),
		Verdicts:  httptransport.NewVerdictsHandler(verdictsSvc, cache, cfg.ClaimCacheTTL, log),
		Trending:  httptransport.NewTrendingHandler(trendingSvc, cache, cfg.ClaimCacheTTL, log),
		Health:    httptransport.NewHealthHandler(healthChecks),
		RateLimit: limitMW,
		JWTKey:    cfg.JWTSigningKey,
		Logger:    log,
		Metrics:   metrics,
		Timeout:   30 * time.Second,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting factgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		ticker := time.NewTicker(cfg.TrendingSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if err := trendingSvc.Recompute(groupCtx); err != nil {
					log.Warn("trending recompute failed", "error", err.Error())
				}
				if redisClient == nil {
					memCounters.Sweep(groupCtx)
				}
			}
		}
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return pipe.Wait()
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("shutdown complete")
}

type pgHealth struct {
	pool *pgxpool.Pool
}

func (h pgHealth) Health(ctx context.Context) error {
	return h.pool.Ping(ctx)
}
