package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"coalesce/internal/audit"
	identityhandler "coalesce/internal/identity/handler"
	"coalesce/internal/identity/lock"
	"coalesce/internal/identity/metrics"
	"coalesce/internal/identity/service"
	"coalesce/internal/identity/store"
	"coalesce/internal/platform/config"
	"coalesce/internal/platform/httpserver"
	"coalesce/internal/platform/logger"
	"coalesce/internal/platform/postgres"
	platformredis "coalesce/internal/platform/redis"
	httptransport "coalesce/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Contact store: PostgreSQL when configured, in-memory otherwise.
	var (
		contacts service.Store
		health   httptransport.HealthCheck
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgresStore(db)
		contacts = pg
		health = pg.Health
	} else {
		log.Warn("DATABASE_URL not set, using in-memory contact store")
		contacts = store.NewInMemoryStore()
	}

	// Submission lock: Redis when configured (multi-instance), in-process
	// otherwise.
	var locks lock.SubmissionLock
	if cfg.RedisURL != "" {
		rdb, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		locks = lock.NewRedisLock(rdb.Client)
	} else {
		locks = lock.NewKeyedMutex()
	}

	// Audit pipeline: channel publisher, background worker, optional Kafka
	// sink.
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	inbox := make(chan audit.Event, 1024)
	auditPub := audit.NewPublisher(inbox, log)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), sink, inbox, log)

	svc, err := service.New(contacts, locks, auditPub, metrics.New(), log)
	if err != nil {
		log.Error("build identity service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(identityhandler.New(svc, log), health)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting coalesce", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
