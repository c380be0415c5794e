package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketplace/cmd"
	"marketplace/config"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	builder := cmd.NewBuilder(cfg)
	if cfg.Redis.Enabled {
		rdb := cmd.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		builder.WithRedis(rdb)
	}

	app, err := builder.Build()
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}
