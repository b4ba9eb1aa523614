// The server is the authoritative store for payment requests. It owns the
// lifecycle rules, the audit trail, and the full-state read that client
// sessions pull from.
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

	"github.com/joho/godotenv"

	"paygate/internal/audit"
	"paygate/internal/auth"
	"paygate/internal/cutoff"
	"paygate/internal/lifecycle"
	"paygate/internal/platform/config"
	"paygate/internal/platform/httpserver"
	"paygate/internal/platform/logger"
	"paygate/internal/platform/metrics"
	"paygate/internal/risk"
	"paygate/internal/storage"
	"paygate/internal/storage/postgres"
	httptransport "paygate/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paygate-server:", err)
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

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		requests   storage.RequestStore
		projects   storage.ProjectStore
		auditStore storage.AuditStore
		txRunner   storage.TxRunner
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		requests = postgres.NewRequestStore(db)
		projects = postgres.NewProjectStore(db)
		auditStore = postgres.NewAuditStore(db)
		txRunner = postgres.NewTxRunner(db)
		log.Info("using postgres storage")
	} else {
		requests = storage.NewInMemoryRequestStore()
		projects = storage.NewInMemoryProjectStore()
		auditStore = storage.NewInMemoryAuditStore()
		txRunner = storage.NoopTxRunner{}
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Audit recorder, optionally mirrored to Kafka for downstream consumers.
	recorderOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, audit.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.AuditTopic,
		}, log)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		defer publisher.Close()
		recorderOpts = append(recorderOpts, audit.WithMirror(publisher))
		log.Info("audit mirror enabled", "topic", cfg.Kafka.AuditTopic)
	}
	recorder := audit.NewRecorder(auditStore, recorderOpts...)

	evaluator, err := cutoff.NewDailyHour(cfg.Cutoff.Hour)
	if err != nil {
		return err
	}

	svc, err := lifecycle.New(requests, projects, recorder,
		risk.New(), evaluator, txRunner,
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(metrics.New()),
	)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Server.JWTSigningKey, cfg.Server.Issuer)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(nil, tokens, auth.WithLogger(log))
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:      authSvc,
		Validator: authSvc,
		Lifecycle: svc,
		Requests:  requests,
		Projects:  projects,
		Audit:     auditStore,
		Recorder:  recorder,
		Logger:    log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("paygate server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
