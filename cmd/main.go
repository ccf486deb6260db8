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

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/persistsvc/internal/chat/topics"
	"github.com/yungbote/persistsvc/internal/config"
	"github.com/yungbote/persistsvc/internal/db"
	"github.com/yungbote/persistsvc/internal/jobs"
	"github.com/yungbote/persistsvc/internal/observability"
	"github.com/yungbote/persistsvc/internal/platform/logger"
	"github.com/yungbote/persistsvc/internal/platform/pidfile"
	"github.com/yungbote/persistsvc/internal/registry"
	"github.com/yungbote/persistsvc/internal/repos"
	"github.com/yungbote/persistsvc/internal/server"
	"github.com/yungbote/persistsvc/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.ServiceName, err)
		os.Exit(1)
	}
}

func run() error {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration...", "service", config.ServiceName, "version", version.Version, "build", version.Build)
	cfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.ZookeeperHosts) > 0 {
		// Accepted for deploy parity; registration now lives on redis.
		log.Info("Ignoring zookeeper hosts", "hosts", cfg.ZookeeperHosts)
	}

	// Pidfile
	pid, err := pidfile.Acquire(cfg.ServicePidFile)
	if err != nil {
		return fmt.Errorf("acquire pidfile: %w", err)
	}
	defer func() {
		if err := pid.Release(); err != nil {
			log.Warn("Pidfile release failed", "error", err)
		}
	}()

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stopSignals()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: config.ServiceName,
		Environment: cfg.ServiceEnv,
		Version:     version.Version,
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	persistJobRepo := repos.NewPersistJobRepo(thePG, log)
	chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	chatUserRepo := repos.NewChatUserRepo(thePG, log)
	chatMinuteRepo := repos.NewChatMinuteRepo(thePG, log)
	chatSpeakingMarkerRepo := repos.NewChatSpeakingMarkerRepo(thePG, log)
	chatTagRepo := repos.NewChatTagRepo(thePG, log)
	chatArchiveJobRepo := repos.NewChatArchiveJobRepo(thePG, log)
	chatHighlightSessionRepo := repos.NewChatHighlightSessionRepo(thePG, log)

	// Persister, pool, monitor
	log.Info("Setting up persister...", "threads", cfg.PersisterThreads, "poll", cfg.PollInterval())
	metrics := observability.NewMetrics()
	persister := jobs.NewPersister(jobs.PersisterConfig{
		DB:                thePG,
		Owner:             config.ServiceName,
		SpeakingThreshold: cfg.SpeakingThreshold(),
		Metrics:           metrics,
		Jobs:              persistJobRepo,
		Messages:          chatMessageRepo,
		Users:             chatUserRepo,
		Minutes:           chatMinuteRepo,
		Markers:           chatSpeakingMarkerRepo,
		Tags:              chatTagRepo,
		Archives:          chatArchiveJobRepo,
		Highlights:        chatHighlightSessionRepo,
		Loader:            topics.NewLoader(topicRepo, log),
	}, log)
	pool := jobs.NewPool(cfg.PersisterThreads, cfg.PersisterThreads*16, persister, metrics, log)
	monitor := jobs.NewMonitor(persistJobRepo, pool, cfg.PollInterval(), metrics, log)

	// Registry
	reg, err := registry.New(cfg, log)
	if err != nil {
		log.Warn("Instance registration unavailable, continuing", "error", err)
	}

	// HTTP surface
	router := server.NewRouter(server.RouterConfig{
		Log:     log,
		DB:      thePG,
		Env:     cfg.ServiceEnv,
		Stats:   pool.Snapshot,
		Metrics: metrics,
	})
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	pool.Start(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := monitor.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return reg.Announce(groupCtx)
	})
	group.Go(func() error {
		log.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down...")
		monitor.Stop()
		pool.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	log.Info("Service stopped", "service", config.ServiceName)
	return err
}
