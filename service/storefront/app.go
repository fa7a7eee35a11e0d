// Package storefront wires configuration, storage, the backend client and the
// cart and checkout services into one application value.
package storefront

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront.GO/config"
	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
	"storefront.GO/cron"
	"storefront.GO/model/repository/cartstore"
	"storefront.GO/service/backend"
	cartService "storefront.GO/service/cart"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/checkout"
)

// CatalogRefreshJob is the cron job name of the periodic catalog reload.
const CatalogRefreshJob = "catalog:refresh"

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Backend  *backend.Client
	Store    *cartstore.CartStore
	Products *catalogService.Service
	Cart     *cartService.Manager
	Checkout *checkout.Session
}

// New builds the application. Redis backs the catalog cache when it is configured
// and reachable; otherwise an in-process cache is used.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	policy, err := cartService.ParseLoginPolicy(cfg.LoginPolicy)
	if err != nil {
		return nil, err
	}

	var store cache.Cache = cache.NewMemory()
	if rdb := config.InitRedis(cfg); rdb != nil {
		store = cache.NewRedis(rdb, cfg.AppName+":")
		logger.Info("catalog cache backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	client := backend.New(cfg.APIBaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		backend.WithCache(store, cfg.CatalogTTL),
		backend.WithLogger(logger.Named("backend")))

	db, err := config.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	carts, err := cartstore.New(db, logger.Named("cartstore"))
	if err != nil {
		return nil, err
	}

	products := catalogService.NewService(client, logger.Named("catalog"))
	mgr := cartService.NewManager(client, carts, products,
		cartService.WithLoginPolicy(policy),
		cartService.WithLogger(logger.Named("cart")))
	session := checkout.NewSession(client, products, mgr,
		checkout.WithDebounce(cfg.VoucherDebounce),
		checkout.WithRegion(cfg.DefaultRegion),
		checkout.WithLogger(logger.Named("checkout")))

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Backend:  client,
		Store:    carts,
		Products: products,
		Cart:     mgr,
		Checkout: session,
	}, nil
}

// Open restores the stored session. It must run before anything reads the cart.
func (a *App) Open(ctx context.Context) error {
	return a.Cart.Open(ctx)
}

// RegisterJobs adds the periodic catalog refresh to the cron registry. The job reloads
// products, regions and the fee per kilo, so a checkout that failed to load recovers.
func (a *App) RegisterJobs() {
	cron.Register(CatalogRefreshJob, a.Config.CatalogRefreshSchedule, func(ctx context.Context) error {
		cat, err := a.Products.Refresh(ctx)
		if err != nil {
			return err
		}
		if err := a.Checkout.Load(ctx); err != nil {
			return err
		}
		a.Logger.Debug("catalog refreshed", zap.Int("products", cat.Len()))
		return nil
	})
}

// Close releases the local store and the redis connection.
func (a *App) Close() error {
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
