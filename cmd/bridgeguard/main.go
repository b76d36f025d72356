package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/app"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
)

const serviceName = "bridgeguard"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: serviceName,
	}); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	logger.L().Info("starting service",
		zap.String("service", serviceName),
		zap.String("env", cfg.Service.Env),
		zap.String("node_rpc", cfg.Node.RPCURL))

	application, err := app.New(cfg)
	if err != nil {
		logger.L().Fatal("failed to create app", zap.Error(err))
	}

	if err := application.Run(); err != nil {
		logger.L().Fatal("app run error", zap.Error(err))
	}

	logger.L().Info("service stopped")
}
