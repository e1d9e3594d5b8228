package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldData        = "data"
	fieldContentType = "content_type"
)

// RedisStore shares assets between storefront replicas. Each asset is a hash
// with a safety expiration so a crashed owner cannot leak it forever.
type RedisStore struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisStore(redisClient *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		ttl:         ttl,
	}
}

func (s *RedisStore) Put(ctx context.Context, blob *domain.Blob) (string, error) {
	ref := uuid.NewString()
	key := s.keyPrefix + ref

	pipe := s.redisClient.TxPipeline()
	pipe.HSet(ctx, key, fieldData, blob.Data, fieldContentType, blob.ContentType)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store asset %s: %w", ref, err)
	}

	return ref, nil
}

func (s *RedisStore) Get(ctx context.Context, ref string) (*domain.Blob, error) {
	values, err := s.redisClient.HGetAll(ctx, s.keyPrefix+ref).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to load asset %s: %w", ref, err)
	}

	data, ok := values[fieldData]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}

	return &domain.Blob{Data: []byte(data), ContentType: values[fieldContentType]}, nil
}

func (s *RedisStore) Release(ctx context.Context, ref string) error {
	if err := s.redisClient.Del(ctx, s.keyPrefix+ref).Err(); err != nil {
		return fmt.Errorf("failed to release asset %s: %w", ref, err)
	}
	return nil
}
