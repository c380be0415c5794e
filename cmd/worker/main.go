package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketplace/cmd"
	"marketplace/config"
	"marketplace/infrastructure/lock"
	"marketplace/infrastructure/messaging/kafka"
	"marketplace/infrastructure/outbox"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := parseConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, cfg.App.Env); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Outbox.Enabled {
		logger.Info("Outbox relay is disabled by config; exiting")
		return nil
	}

	db, err := cmd.NewMySQLConfig(cfg).Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := mysql.NewOutboxRepository(db)

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	var locker outbox.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		rdb := cmd.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb)
	}

	relay, err := outbox.NewRelay(store, publisher, locker, outbox.RelayConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		LockKey:      cfg.Outbox.LockKey,
		LockTTL:      cfg.Outbox.LockTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox relay: %w", err)
	}

	janitor, err := outbox.NewJanitor(store, cfg.Outbox.CleanupCron, cfg.Outbox.Retention)
	if err != nil {
		return fmt.Errorf("failed to create outbox janitor: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to schedule outbox cleanup: %w", err)
	}
	defer janitor.Stop()

	logger.Info("Outbox relay started",
		zap.Duration("poll_interval", cfg.Outbox.PollInterval),
		zap.Int("batch_size", cfg.Outbox.BatchSize),
		zap.Int("max_attempts", cfg.Outbox.MaxAttempts),
		zap.Bool("kafka", cfg.Kafka.Enabled),
		zap.Bool("redis_lease", cfg.Redis.Enabled),
	)

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox relay exited with error: %w", err)
	}

	logger.Info("Outbox relay stopped")
	return nil
}

func newPublisher(cfg *config.Config) (outbox.Publisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return &outbox.LoggingPublisher{}, func() {}, nil
	}
	p, err := kafka.NewPublisher(cfg.Kafka)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close kafka publisher", zap.Error(err))
		}
	}, nil
}

func parseConfigPath() string {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	return configPath
}
