package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CacheService mirrors scraped athletes into redis:
// one hash field per athlete holding its JSON plus a set of all ids.
type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

const (
	athleteHashKey = "ufc:athletes"
	athleteIDsKey  = "ufc:athletes:ids"
)

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

func (c *CacheService) Name() string {
	return "redis"
}

// Store writes records in one MULTI/EXEC so the hash and the id set never disagree.
func (c *CacheService) Store(ctx context.Context, records []*domain.AthleteRecord) error {
	_, err := c.StoreAthletes(ctx, records)
	return err
}

// StoreAthletes adds every record with an id that is not cached yet and returns how many were added.
// An athlete already in the hash keeps its first entry, matching the JSON dataset.
func (c *CacheService) StoreAthletes(ctx context.Context, records []*domain.AthleteRecord) (int, error) {
	pipe := c.client.TxPipeline()
	var writes []*redis.BoolCmd

	for _, record := range records {
		id := record.ID()
		if id == "" {
			continue
		}
		payload, err := domain.EncodeJSON(record)
		if err != nil {
			return 0, errors.NewCacheError("marshal failed", "hsetnx", id, err)
		}
		writes = append(writes, pipe.HSetNX(ctx, athleteHashKey, id, string(payload)))
		pipe.SAdd(ctx, athleteIDsKey, id)
	}

	if len(writes) == 0 {
		return 0, nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Cache athlete write failed", zap.Int("athletes", len(writes)), zap.Error(err))
		return 0, errors.NewCacheError("pipeline exec failed", "hsetnx", athleteHashKey, err)
	}

	added := 0
	for _, cmd := range writes {
		if cmd.Val() {
			added++
		}
	}

	c.logger.Info("Athletes cached",
		zap.String("key", athleteHashKey),
		zap.Int("athletes", len(writes)),
		zap.Int("added", added),
	)
	return added, nil
}

func (c *CacheService) GetAthlete(ctx context.Context, id string) (*domain.AthleteRecord, error) {
	value, err := c.client.HGet(ctx, athleteHashKey, id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache hget failed", zap.String("key", athleteHashKey), zap.String("field", id), zap.Error(err))
		return nil, errors.NewCacheError("hget failed", "hget", athleteHashKey, err)
	}

	var record domain.AthleteRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		c.logger.Error("Cache unmarshal failed", zap.String("field", id), zap.Error(err))
		return nil, errors.NewCacheError("unmarshal failed", "hget", athleteHashKey, err)
	}
	return &record, nil
}

// AthleteIDs returns every athlete id ever cached.
func (c *CacheService) AthleteIDs(ctx context.Context) (map[string]struct{}, error) {
	members, err := c.client.SMembers(ctx, athleteIDsKey).Result()
	if err != nil {
		c.logger.Error("Cache smembers failed", zap.String("key", athleteIDsKey), zap.Error(err))
		return nil, errors.NewCacheError("smembers failed", "smembers", athleteIDsKey, err)
	}

	ids := make(map[string]struct{}, len(members))
	for _, id := range members {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}
