package app

import (
	"context"
	"fmt"

	"github.com/kapu/ufc-athlete-scraper-go/internal/config"
	"github.com/kapu/ufc-athlete-scraper-go/internal/crawler"
	"github.com/kapu/ufc-athlete-scraper-go/internal/service/cache"
	"github.com/kapu/ufc-athlete-scraper-go/internal/service/database"
	"github.com/kapu/ufc-athlete-scraper-go/internal/storage"
	"go.uber.org/zap"
)

// Container bundles the assembled services for one scraper run.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Store   *storage.JSONStore
	Crawler *crawler.Crawler

	Cache    *cache.CacheService
	Athletes *database.AthleteRepository

	closers []func()
}

// Build assembles the crawler, the JSON store and the optional redis/postgres sinks.
// A sink that cannot be reached is logged and left out; the JSON dataset does not depend on it.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	c, err := crawler.New(crawler.Options{
		StartURL:         cfg.Scraper.StartURL,
		AllowedDomains:   cfg.Scraper.AllowedDomains,
		Gender:           cfg.Scraper.Gender,
		Concurrency:      cfg.Scraper.Concurrency,
		Delay:            cfg.Scraper.Delay,
		RandomDelay:      cfg.Scraper.RandomDelay,
		RetryTimes:       cfg.Scraper.RetryTimes,
		RequestTimeout:   cfg.Scraper.RequestTimeout,
		UserAgent:        cfg.Scraper.UserAgent,
		RotateUserAgent:  cfg.Scraper.RotateUserAgent,
		BreakerThreshold: cfg.Scraper.BreakerThreshold,
		BreakerCooldown:  cfg.Scraper.BreakerCooldown,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawler: %w", err)
	}

	container = &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   storage.NewJSONStore(cfg.Output.File, logger),
		Crawler: c,
	}

	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis sink disabled", zap.Error(cacheErr))
		} else {
			container.Cache = cacheSvc
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
		}
	}

	if cfg.Postgres.Enabled {
		postgresSvc, pgErr := database.NewPostgresService(ctx, database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL sink disabled", zap.Error(pgErr))
		} else {
			closers = append(closers, func() {
				_ = postgresSvc.Close()
			})

			repo := database.NewAthleteRepository(postgresSvc.GetDB(), logger)
			if schemaErr := repo.EnsureSchema(ctx); schemaErr != nil {
				logger.Warn("PostgreSQL sink disabled", zap.Error(schemaErr))
			} else {
				container.Athletes = repo
			}
		}
	}

	container.closers = closers
	return container, nil
}

// NewPipeline wires the crawler, the JSON store and every connected sink.
func (c *Container) NewPipeline() *Pipeline {
	p := NewPipeline(c.Crawler, c.Store, c.Logger)

	var sources []IDSource
	if c.Cache != nil {
		p.WithSinks(c.Cache)
		sources = append(sources, c.Cache.AthleteIDs)
	}
	if c.Athletes != nil {
		p.WithSinks(c.Athletes)
		sources = append(sources, c.Athletes.AllIDs)
	}

	if c.Config.Scraper.SkipKnown {
		p.WithSkipKnown(sources...)
	}
	return p
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
