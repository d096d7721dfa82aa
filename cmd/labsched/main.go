package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/labsched/internal/api"
	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/config"
	"github.com/Spok95/labsched/internal/infra/db"
	httpx "github.com/Spok95/labsched/internal/infra/http"
	"github.com/Spok95/labsched/internal/infra/logger"
	"github.com/Spok95/labsched/internal/infra/metrics"
	"github.com/Spok95/labsched/internal/infra/notify"
	"github.com/Spok95/labsched/internal/service"
	"github.com/Spok95/labsched/internal/store/postgres"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)
	if err := run(cfg, log); err != nil {
		log.Error("labsched stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	loc := time.UTC
	if cfg.App.Timezone != "" {
		l, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			return err
		}
		loc = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("db connected")

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info("migrations applied")

	st := postgres.New(pool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	notifier, err := notify.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		return err
	}

	ledger := service.NewLedger(st, log, m)
	svc := api.Services{
		Materials: service.NewMaterials(st, ledger, log, notifier),
		Bookings:  service.NewBookings(st, log),
		Lifecycle: service.NewLifecycle(st, ledger, log, m, notifier),
		Undo:      service.NewUndo(st, log, m),
		Kits:      service.NewKits(st, log),
		Users:     service.NewUsers(st, log, cfg.Auth.BcryptCost),
		Labs:      service.NewLabs(st),
	}

	if b := cfg.Bootstrap; b.AdminEmail != "" {
		if err := svc.Users.EnsureAdmin(ctx, b.AdminName, b.AdminEmail, b.AdminPassword); err != nil {
			return err
		}
		log.Info("bootstrap admin ensured", "email", b.AdminEmail)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	router := api.NewRouter(svc, tokens, log, api.Options{CORSOrigins: cfg.HTTP.CORSOrigins, Location: loc})

	srv := httpx.New(cfg.HTTP.Addr, router, metricsHandler)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("graceful shutdown complete")
	return nil
}
