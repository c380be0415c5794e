package cmd

import (
	"context"
	"fmt"
	"net/http"

	"marketplace/api"
	apicart "marketplace/api/cart"
	"marketplace/api/health"
	apiorder "marketplace/api/order"
	cartapp "marketplace/application/cart"
	orderapp "marketplace/application/order"
	"marketplace/config"
	"marketplace/domain/coupon"
	"marketplace/infrastructure/persistence/mysql"
	"marketplace/infrastructure/persistence/retry"
	"marketplace/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg   *config.Config
	db    *gorm.DB
	redis redis.UniversalClient
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithDB uses an already opened database instead of connecting from config
func (b *AppBuilder) WithDB(db *gorm.DB) *AppBuilder {
	b.db = db
	return b
}

// WithRedis registers a redis readiness check
func (b *AppBuilder) WithRedis(cli redis.UniversalClient) *AppBuilder {
	b.redis = cli
	return b
}

// Build creates the App instance
func (b *AppBuilder) Build() (*App, error) {
	logger.Info("Building application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	db := b.db
	if db == nil {
		var err error
		if db, err = b.openDatabase(); err != nil {
			return nil, err
		}
	}

	pricing, err := orderapp.PricingFromConfig(b.cfg.Pricing)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	products := mysql.NewProductRepository(db)
	coupons := mysql.NewCouponRepository(db)
	uows := mysql.NewUnitOfWorkFactory(db)
	currency := b.cfg.Pricing.Currency

	cartService := cartapp.NewService(mysql.NewCartRepository(db), products, uows, currency).
		WithRetry(retry.FromAppConfig(b.cfg))
	checkoutService := orderapp.NewCheckoutService(orderapp.Dependencies{
		Orders:    mysql.NewOrderRepository(db),
		Products:  products,
		Coupons:   coupons,
		Carts:     cartService,
		Addresses: orderapp.NewAddressLookup(mysql.NewAddressRepository(db)),
		Validator: coupon.NewValidator(coupons),
		Lookup:    orderapp.NewCouponLookup(coupons),
		UoW:       uows,
	}, pricing, currency, retry.FromAppConfig(b.cfg))

	healthController := health.NewController(b.cfg, db)
	if b.redis != nil {
		cli := b.redis
		healthController.WithCheck("redis", func(ctx context.Context) error {
			return cli.Ping(ctx).Err()
		})
	}

	router := api.NewRouter(b.cfg,
		healthController,
		apiorder.NewController(checkoutService),
		apicart.NewController(cartService),
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config: b.cfg,
		router: router,
		server: server,
		db:     db,
	}, nil
}

func (b *AppBuilder) openDatabase() (*gorm.DB, error) {
	db, err := NewMySQLConfig(b.cfg).Connect()
	if err != nil {
		return nil, err
	}
	if err := mysql.Ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if b.cfg.Database.AutoMigrate {
		if err := mysql.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("failed to auto migrate: %w", err)
		}
		logger.Info("Database schema migrated")
	}
	return db, nil
}

// NewRedisClient opens the redis client shared by the API readiness check and the relay lease
func NewRedisClient(cfg config.RedisConfig) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
