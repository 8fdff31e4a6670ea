// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"placelist/internal/audit"
	"placelist/internal/auth/gate"
	"placelist/internal/auth/handler"
	"placelist/internal/auth/ratelimit"
	"placelist/internal/auth/redirect"
	"placelist/internal/auth/resolver"
	"placelist/internal/auth/service"
	"placelist/internal/identity/gotrue"
	"placelist/internal/platform/config"
	"placelist/internal/platform/httpserver"
	"placelist/internal/platform/logger"
	"placelist/internal/platform/metrics"
	"placelist/internal/platform/middleware"
	platformredis "placelist/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "placelist: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New()
	m := metrics.New()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var auditStore audit.Store
	if cfg.Audit.PostgresDSN != "" {
		pg, err := audit.NewPostgresStore(ctx, cfg.Audit.PostgresDSN)
		if err != nil {
			return err
		}
		defer func() { _ = pg.Close() }()
		auditStore = pg
	} else {
		log.Warn("audit trail using in-memory store; set PLACELIST_AUDIT_POSTGRES_DSN in production")
		auditStore = audit.NewMemoryStore()
	}

	auditor := audit.NewPublisher(cfg.Audit.BufferSize, log, m)
	auditWorker := audit.NewWorker(auditStore, auditor.Inbox(), log)

	provider := gotrue.New(gotrue.Config{
		BaseURL:    cfg.Identity.BaseURL,
		AnonKey:    cfg.Identity.AnonKey,
		ServiceKey: cfg.Identity.ServiceKey,
		Timeout:    cfg.Identity.Timeout,
	}, log, m)

	var limiter *ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.New(redisClient.Client, cfg.Limits.Window, log)
	}

	validator := redirect.New(cfg.DefaultRedirect)
	res := resolver.New(provider, log, m)
	routes := gate.NewClassification(cfg.ProtectedPrefixes, cfg.PublicPrefixes)
	sessionGate := gate.New(routes, res, provider, validator, auditor, log, m)
	coordinator := service.New(provider, res, limiter, cfg.Limits, auditor, log, m)
	authHandler := handler.New(coordinator, res, validator, auditor, log)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Session(false))
	router.Use(sessionGate.Middleware)

	authHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Page routes are rendered by the web frontend; these stubs keep the
	// server self-contained until it is mounted behind it.
	for _, path := range []string{"/", "/login", "/auth/error", "/dashboard", "/dashboard/*"} {
		router.Get(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintf(w, "placelist %s\n", r.URL.Path)
		})
	}

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting placelist", "addr", cfg.Addr)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditWorker.Run(ctx)
	})
	group.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
