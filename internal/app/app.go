// Package app manages the application lifecycle: infrastructure wiring,
// background loops and graceful shutdown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/cache"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/database"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/node"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/notifier"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/ratelimit"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/repository"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/rpc"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/scoring"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/service"
)

// App is the assembled monitoring service.
type App struct {
	cfg *config.Config

	db    *gorm.DB
	redis *redis.Client

	rpcClient *rpc.Client
	nodeMgr   *node.Manager

	bridgeRepo    *repository.BridgeRepository
	txRepo        *repository.TransactionRepository
	anomalyRepo   *repository.AnomalyRepository
	alertRepo     *repository.AlertRepository
	validatorRepo *repository.ValidatorRepository
	recordRepo    *repository.ValidationRecordRepository
	statsRepo     *repository.StatsRepository

	kafkaNotifier *notifier.KafkaNotifier
	fanout        *notifier.Fanout

	ValidationSvc *service.ValidationService
	AnomalySvc    *service.AnomalyService
	ValidatorSvc  *service.ValidatorService
	StatsSvc      *service.StatsService

	metricsServer *http.Server
	stopCh        chan struct{}
}

// New assembles the application from configuration.
func New(cfg *config.Config) (*App, error) {
	app := &App{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}

	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}
	app.initNode()
	app.initRepositories()
	if err := app.initNotifiers(); err != nil {
		return nil, fmt.Errorf("init notifiers: %w", err)
	}
	app.initServices()

	return app, nil
}

func (a *App) initInfrastructure() error {
	db, err := database.Open(&a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	a.db = db
	logger.L().Info("database ready", zap.String("driver", a.cfg.Database.Driver))

	if a.cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", a.cfg.Redis.Host, a.cfg.Redis.Port),
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			PoolSize: a.cfg.Redis.PoolSize,
		})
		if err := a.redis.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		logger.L().Info("redis connected",
			zap.String("host", a.cfg.Redis.Host),
			zap.Int("port", a.cfg.Redis.Port))
	}

	return nil
}

func (a *App) initNode() {
	a.rpcClient = rpc.NewClient(&rpc.ClientConfig{
		URL:            a.cfg.Node.RPCURL,
		RequestTimeout: a.cfg.Node.RequestTimeoutDuration(),
		MaxRetries:     3,
		RetryInterval:  time.Second,
	})
	a.nodeMgr = node.NewManager(a.rpcClient, node.ManagerConfig{
		ChainID: a.cfg.Node.ChainID,
		Moniker: a.cfg.Node.Moniker,
	})
	logger.L().Info("node client initialized", zap.String("rpc_url", a.cfg.Node.RPCURL))
}

func (a *App) initRepositories() {
	a.bridgeRepo = repository.NewBridgeRepository(a.db)
	a.txRepo = repository.NewTransactionRepository(a.db)
	a.anomalyRepo = repository.NewAnomalyRepository(a.db)
	a.alertRepo = repository.NewAlertRepository(a.db)
	a.validatorRepo = repository.NewValidatorRepository(a.db)
	a.recordRepo = repository.NewValidationRecordRepository(a.db)
	a.statsRepo = repository.NewStatsRepository(a.db)
}

func (a *App) initNotifiers() error {
	var channels []notifier.Notifier

	if a.cfg.Monitoring.WebhookURL != "" {
		channels = append(channels, notifier.NewWebhookNotifier(
			a.cfg.Monitoring.WebhookURL,
			a.cfg.Monitoring.WebhookTimeout(),
		))
	}
	if a.cfg.Kafka.Enabled {
		kn, err := notifier.NewKafkaNotifier(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, a.cfg.Kafka.ClientID)
		if err != nil {
			return fmt.Errorf("create kafka notifier: %w", err)
		}
		a.kafkaNotifier = kn
		channels = append(channels, kn)
		logger.L().Info("kafka notifier initialized",
			zap.Strings("brokers", a.cfg.Kafka.Brokers),
			zap.String("topic", a.cfg.Kafka.Topic))
	}

	a.fanout = notifier.NewFanout(a.cfg.Monitoring.WebhookTimeout(), channels...)
	return nil
}

func (a *App) initServices() {
	limiter := ratelimit.NewSlidingWindow(
		a.cfg.Monitoring.RateLimit,
		a.cfg.Monitoring.RateLimitWindow(),
	)
	scorer := scoring.NewUniformScorer(a.cfg.Monitoring.ModelVersion, time.Now().UnixNano())
	deduper := cache.NewDeduper(a.redis, a.cfg.Monitoring.DedupeWindow())

	// one limiter instance: validation and anomaly entry points share
	// each client's admission budget
	a.ValidationSvc = service.NewValidationService(
		a.bridgeRepo, a.txRepo, a.recordRepo, limiter, scorer, &a.cfg.Monitoring)
	a.AnomalySvc = service.NewAnomalyService(
		a.db, a.txRepo, a.alertRepo, limiter, scorer, deduper, a.fanout, &a.cfg.Monitoring)
	a.ValidatorSvc = service.NewValidatorService(a.validatorRepo, a.nodeMgr)
	a.StatsSvc = service.NewStatsService(a.db, a.statsRepo, a.anomalyRepo, a.nodeMgr)

	logger.L().Info("services initialized")
}

// Run starts the background loops and blocks until a shutdown signal.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// wait once for the node, then keep watching; an unsynced node does
	// not block startup, validation runs regardless
	if status, _, synced := a.nodeMgr.WaitForSync(ctx, 10, a.cfg.Node.PollInterval()); !synced {
		logger.L().Warn("node not synced at startup",
			zap.String("state", string(status.State)))
	}
	go a.nodeMgr.Watch(ctx, a.cfg.Node.PollInterval())

	a.startMetricsServer()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.L().Info("received shutdown signal")
	case <-a.stopCh:
		logger.L().Info("shutdown requested")
	}

	return a.shutdown()
}

// Stop requests a shutdown from another goroutine.
func (a *App) Stop() {
	close(a.stopCh)
}

func (a *App) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:    ":9091",
		Handler: mux,
	}
	go func() {
		logger.L().Info("metrics server listening", zap.String("addr", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Error("metrics server error", zap.Error(err))
		}
	}()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}
	if a.kafkaNotifier != nil {
		if err := a.kafkaNotifier.Close(); err != nil {
			logger.L().Error("close kafka notifier", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logger.L().Info("shutdown complete")
	return nil
}
