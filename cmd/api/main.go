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

	"caller-agent/internal/agent"
	"caller-agent/internal/auth"
	"caller-agent/internal/callrecords"
	"caller-agent/internal/config"
	"caller-agent/internal/notify"
	"caller-agent/internal/phoneintel"
	"caller-agent/pkg/logger"
	"caller-agent/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store := callrecords.NewStore(db, cfg.Records.Table)
	if err := store.EnsureSchema(rootCtx); err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}
	records := callrecords.NewService(store)

	keys := phoneintel.NewCachedKeySource(
		phoneintel.NewRedisSecretSource(rdb),
		cfg.PhoneIntel.SecretName,
	)
	var cache phoneintel.Cache
	if cfg.PhoneIntel.CacheTTL > 0 {
		cache = phoneintel.NewRedisValidationCache(rdb, cfg.PhoneIntel.CacheTTL)
	}
	phones := phoneintel.NewClient(cfg.PhoneIntel.BaseURL, cfg.PhoneIntel.Timeout, keys, cache)

	dispatcher := notify.NewDispatcher(
		notify.NewRedisStreamPublisher(rdb, cfg.Notify.Stream),
		records,
	)

	actionRouter := agent.NewRouter(phones, records, dispatcher)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		Auth:    authManager,
		Records: records,
		Actions: actionRouter,
		DB:      db,
		Redis:   rdb,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Action dispatch performs at most one upstream call (10s cap) and
		// one or two store/stream operations; 30s bounds the whole request.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
