package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/client"
	"catalog/storefront/internal/config"
	"catalog/storefront/internal/page"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/server"
	"catalog/storefront/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.CatalogClient
	Assets     assets.Store
	Repository repository.OutcomeRepository
	Sessions   *session.Manager
	Server     *server.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	// Initialize asset store
	switch cfg.Assets.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		container.redis = rdb
		container.Assets = assets.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Assets.TTL)
	default:
		container.Assets = assets.NewMemoryStore(cfg.Assets.TTL)
	}

	// Initialize repository
	if cfg.Database.Enabled {
		db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := db.Ping(context.Background()); err != nil {
			db.Close()
			container.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to PostgreSQL successfully")

		container.db = db
		container.Repository = repository.NewOutcomeRepository(db)
	} else {
		container.Repository = repository.NewNopRepository()
	}

	container.Client = client.NewCatalogClient(cfg.Catalog)

	container.Sessions = session.NewManager(page.Deps{
		Client:  container.Client,
		Assets:  container.Assets,
		Timeout: cfg.Catalog.Timeout,
	}, cfg.Catalog.Language, cfg.Session.IdleTimeout)

	srv, err := server.New(server.Options{
		Client:        container.Client,
		Assets:        container.Assets,
		Sessions:      container.Sessions,
		Outcomes:      container.Repository,
		CookieName:    cfg.Session.CookieName,
		Language:      cfg.Catalog.Language,
		RenderTimeout: cfg.Server.RenderTimeout,
	})
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Server = srv

	return container, nil
}

// Run serves HTTP and sweeps idle sessions until ctx ends
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Server.ListenAndServe(ctx, c.Config.Server.Addr())
	})

	g.Go(func() error {
		return c.Sessions.Run(ctx, c.Config.Session.SweepInterval)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.Sessions != nil {
		c.Sessions.Close()
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
