package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anime-shed/photo-suitability/pkg/models"
)

// AssessmentCache stores finished assessments keyed by analyzer version and content hash.
// Get returns (nil, nil) on a miss.
type AssessmentCache interface {
	Get(ctx context.Context, version, contentHash string) (*models.Assessment, error)
	Set(ctx context.Context, assessment *models.Assessment) error
	Close() error
}

// Key builds the cache key for an assessment
func Key(version, contentHash string) string {
	return fmt.Sprintf("assessment:%s:%s", version, contentHash)
}

// RedisCache implements AssessmentCache on Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the stored assessment or nil on a miss
func (c *RedisCache) Get(ctx context.Context, version, contentHash string) (*models.Assessment, error) {
	data, err := c.client.Get(ctx, Key(version, contentHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var assessment models.Assessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &assessment, nil
}

// Set stores the assessment under its version and content hash
func (c *RedisCache) Set(ctx context.Context, assessment *models.Assessment) error {
	if assessment == nil || assessment.ContentHash == "" {
		return errors.New("cache set: assessment has no content hash")
	}
	data, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	key := Key(assessment.AnalyzerVersion, assessment.ContentHash)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache never stores anything; used when Redis is not configured
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, version, contentHash string) (*models.Assessment, error) {
	return nil, nil
}

func (NoopCache) Set(ctx context.Context, assessment *models.Assessment) error { return nil }

func (NoopCache) Close() error { return nil }
