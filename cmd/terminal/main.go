// The terminal is one operator session. It keeps a local mirror of the
// server's state, refreshed by polling and by cross-session broadcasts, and
// keeps working from its durable snapshot when the server is unreachable.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"paygate/internal/platform/config"
	"paygate/internal/platform/httpserver"
	"paygate/internal/platform/logger"
	platformredis "paygate/internal/platform/redis"
	syncengine "paygate/internal/sync"
	"paygate/internal/sync/bus"
	syncmetrics "paygate/internal/sync/metrics"
)

const broadcastChannel = "paygate.broadcast"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paygate-terminal:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote, err := syncengine.NewHTTPRemote(cfg.Terminal.ServerURL, "")
	if err != nil {
		return err
	}
	if cfg.Terminal.Username != "" {
		token, err := remote.Login(ctx, cfg.Terminal.Username, cfg.Terminal.Password)
		if err != nil {
			// The session still starts: the cached snapshot serves reads
			// and mutations queue until the server is back.
			log.Warn("login failed, starting in local-only mode", "error", err)
		} else {
			remote.SetToken(token)
		}
	}

	// Cross-session broadcasts ride Redis when configured; a process-local
	// bus otherwise.
	var broadcast bus.Bus = bus.NewInMemoryBus()
	redisClient, err := platformredis.New(ctx, platformredis.Options{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		broadcast = bus.NewRedisBus(redisClient.Client, broadcastChannel, log)
		log.Info("cross-session broadcast via redis", "channel", broadcastChannel)
	}

	engine, err := syncengine.NewEngine(remote,
		syncengine.NewFileCache(cfg.Terminal.SnapshotPath),
		broadcast,
		syncengine.WithLogger(log),
		syncengine.WithMetrics(syncmetrics.New()),
	)
	if err != nil {
		return err
	}
	if err := engine.Start(ctx); err != nil {
		return err
	}
	defer engine.Stop()

	poller := syncengine.NewPoller(engine,
		syncengine.WithInterval(cfg.Terminal.PollInterval),
		syncengine.WithPollerLogger(log),
	)

	log.Info("terminal session started",
		"session_id", engine.SessionID(),
		"server", cfg.Terminal.ServerURL,
		"poll_interval", cfg.Terminal.PollInterval,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(gctx) })
	if cfg.Terminal.MetricsAddr != "" {
		metricsSrv := httpserver.New(cfg.Terminal.MetricsAddr, promhttp.Handler())
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
		log.Info("session metrics exposed", "addr", cfg.Terminal.MetricsAddr)
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Info("terminal session stopped", "mode", engine.Mode(), "pending", engine.PendingMutations())
	return nil
}
