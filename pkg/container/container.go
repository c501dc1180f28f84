package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/domains/catalog"
	offerRepo "ecommerce-backend/internal/domains/offer/repository"
	offerService "ecommerce-backend/internal/domains/offer/service"
	infraCache "ecommerce-backend/internal/infrastructure/cache"
	"ecommerce-backend/internal/infrastructure/database"
	"ecommerce-backend/pkg/cache"
)

// Container holds every shared dependency of the application.
// All fields are singletons; initialization order matters and is
// enforced by NewContainer.
type Container struct {
	// Infrastructure
	Config *config.Config
	DB     *database.PostgresDB
	Cache  cache.Cache

	// Data access
	OfferRepo offerRepo.OfferRepository

	// Business logic
	OfferService offerService.OfferService
}

// NewContainer builds the dependency graph in order:
// config, then infrastructure, then repositories, then services.
//
// prices resolves current product pricing at redemption time. Pass nil
// for deployments that never commit redemptions (the worker only runs
// status sweeps).
func NewContainer(prices catalog.PriceLookup) (*Container, error) {
	log.Println("[Container] Initializing...")

	c := &Container{}

	// Step 1: configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[Container] Config loaded (environment: %s)", cfg.App.Environment)

	// Step 2: PostgreSQL
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db
	log.Println("[Container] PostgreSQL connected")

	// Step 3: Redis
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Ping(ctx); err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Cache = redisCache
	log.Println("[Container] Redis connected")

	// Step 4: repositories
	c.OfferRepo = offerRepo.NewPostgresRepository(db.Pool)

	// Step 5: services; wrap the price lookup in the read-through cache
	// when one is provided
	if prices != nil {
		prices = catalog.NewCachedLookup(prices, c.Cache)
	}
	c.OfferService = offerService.NewOfferService(c.OfferRepo, c.Cache, prices)

	log.Println("[Container] ✓ Initialized")
	return c, nil
}

// Cleanup releases infrastructure connections in reverse order.
func (c *Container) Cleanup() {
	log.Println("[Container] Cleaning up...")

	if closer, ok := c.Cache.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			log.Printf("[Container] Redis close failed: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("[Container] ✓ Cleaned up")
}
