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

	"asset-registry/internal/asset"
	"asset-registry/internal/chain"
	"asset-registry/internal/entity"
	"asset-registry/internal/platform/config"
	"asset-registry/internal/platform/httpserver"
	"asset-registry/internal/platform/logger"
	platformredis "asset-registry/internal/platform/redis"
	"asset-registry/internal/registry"
	"asset-registry/internal/registry/metrics"
	httptransport "asset-registry/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var chainQuery asset.ChainQuery
	var healthChecks []httptransport.HealthChecker
	if cfg.EsploraURL != "" {
		esplora := chain.NewEsplora(cfg.EsploraURL, cfg.VerifierTimeout, log)
		chainQuery = esplora

		rdb, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		if rdb != nil {
			defer rdb.Close()
			chainQuery = chain.NewCachedQuery(esplora, rdb.Client, config.ChainCacheTTL, log)
			healthChecks = append(healthChecks, rdb)
			log.Info("issuance lookups cached through redis")
		}
	} else {
		log.Warn("no chain backend configured, on-chain issuance checks disabled")
	}

	reg, err := registry.New(registry.Config{
		Dir:     cfg.DBPath,
		Chain:   chainQuery,
		Client:  entity.NewHTTPGetter(cfg.VerifierTimeout),
		HookCmd: cfg.HookCmd,
		Logger:  log,
		Metrics: metrics.New(),
	})
	if err != nil {
		log.Error("failed initializing registry", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(reg, chainQuery, log, healthChecks...)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, log))

	log.Info("starting asset registry", "addr", cfg.Addr, "db", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
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
