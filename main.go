package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"blinks/actions"
	"blinks/backend"
	"blinks/cache"
	"blinks/cluster"
	"blinks/config"
	"blinks/logger"
	"blinks/metrics"
	"blinks/solprogram"
	"blinks/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	registry, err := cluster.NewRegistryFromSettings(cfg.Clusters)
	if err != nil {
		return fmt.Errorf("clusters: %w", err)
	}
	if err := registry.Validate(); err != nil {
		return fmt.Errorf("clusters: %w", err)
	}

	m := metrics.New()
	pool := solprogram.NewPool(registry, log).Observe(m)

	challenges := backend.NewClient(log,
		backend.WithTimeout(cfg.Backend.Timeout.Duration),
		backend.WithRetry(cfg.Backend.MaxAttempts, time.Second),
		backend.WithAI(cfg.Backend.AIURL, cfg.Backend.AITimeout.Duration),
		backend.WithObserver(m),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var challengeCache cache.ChallengeCache = cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL.Duration)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		rc := cache.NewRedis(rdb, cfg.Cache.TTL.Duration, log)
		if err := rc.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		challengeCache = rc
		log.Infof("✅ Challenge cache on redis %s", cfg.Redis.Addr)
	}

	var st *store.Store
	if cfg.Database.DSN != "" {
		st, err = store.Open(cfg.Database.DSN, log)
		if err != nil {
			return err
		}
		defer st.Close()
		log.Info("✅ Database connected")
	} else {
		log.Warn("database.dsn not set: history and Never Have I Ever are disabled")
	}

	srv := actions.NewServer(actions.Options{
		Registry:           registry,
		Pool:               pool,
		Backend:            challenges,
		Cache:              challengeCache,
		Store:              st,
		Metrics:            m,
		Log:                log,
		PublicBaseURL:      cfg.Server.PublicBaseURL,
		IsProd:             cfg.Server.IsProd,
		ContinuationSecret: cfg.Server.ContinuationSecret,
		CORSOrigins:        cfg.Server.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 Server starting on port %d", cfg.Server.Port)
		for _, name := range registry.Names() {
			log.Infof("✅ Cluster %s configured", name)
		}
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Shutdown complete")
	return nil
}
