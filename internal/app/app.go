package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marklet/marklet/internal/auth"
	"github.com/marklet/marklet/internal/config"
	"github.com/marklet/marklet/internal/feed"
	"github.com/marklet/marklet/internal/httpserver"
	"github.com/marklet/marklet/internal/httpserver/deps"
	"github.com/marklet/marklet/internal/logger"
	"github.com/marklet/marklet/internal/redis"
	"github.com/marklet/marklet/internal/scheduler"
	"github.com/marklet/marklet/internal/sources/providers"
	redisstore "github.com/marklet/marklet/internal/store/redis"
	"github.com/marklet/marklet/internal/store/sqlite"
	"github.com/marklet/marklet/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	store        *sqlite.Store
	hub          *feed.Hub
	checkpointer *scheduler.WALCheckpointer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	// Relational backend
	store, err := sqlite.Open(cfg.DBPath, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open sqlite store: %v", err)
		os.Exit(1)
	}

	// OAuth provider catalogue
	catalogue, err := providers.NewLoader(cfg.ProviderFile).Load()
	if err != nil {
		loggerClient.Errorf("Failed to load provider catalogue: %v", err)
		os.Exit(1)
	}
	registry, err := providers.Map(catalogue, cfg.PublicBaseURL)
	if err != nil {
		loggerClient.Errorf("Failed to map provider catalogue: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("oauth providers loaded",
		logger.Int("count", len(registry.Names())))

	sessions := redisstore.NewStore(redisClient)
	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.SessionTTL)
	hub := feed.NewHub(loggerClient)
	publisher := feed.NewPublisher(redisClient)

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		AllowedHosts:      cfg.AllowedHosts,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		Bookmarks:         store,
		Users:             store,
		Sessions:          sessions,
		Publisher:         publisher,
		Hub:               hub,
		Tokens:            tokens,
		Providers:         registry,
		SessionTTL:        cfg.SessionTTL,
		WriteBurst:        cfg.WriteBurst,
		WriteRefillPerMin: cfg.WriteRefillPerMin,
		RedisClient:       redisClient,
	}

	server := httpserver.New(cfg, loggerClient, d)

	checkpointer := scheduler.NewWALCheckpointer(
		store, loggerClient.Named("checkpoint"), cfg.CheckpointEvery, nil)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		store:        store,
		hub:          hub,
		checkpointer: checkpointer,
	}
}

func (a *App) Run() error {
	a.logger.Infof("Starting marklet %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("marklet %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Attach the change-feed hub to the redis bus.
	feedErrCh := make(chan error, 1)
	go func() {
		if err := a.hub.Run(ctx, a.redisClient); err != nil {
			feedErrCh <- fmt.Errorf("change feed error: %w", err)
		}
	}()

	a.checkpointer.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	case err := <-feedErrCh:
		return err
	}

	a.checkpointer.Stop()
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("failed to close sqlite store: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("Redis closed cleanly")
		}
	}

	a.logger.Info("marklet stopped cleanly")
	return nil
}
