package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/cecvic-wigoh/ten-web-clone-sub000/internal/domain"
)

const redisKeyPrefix = "tenweb:deployment:"

// RedisStore keeps deployment records in Redis so history survives
// process restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisStore{client: client, prefix: redisKeyPrefix}, nil
}

// Save records result under its deployment id.
func (s *RedisStore) Save(ctx context.Context, result *domain.DeploymentResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode deployment %s: %w", result.DeploymentID, err)
	}
	return s.client.Set(ctx, s.prefix+result.DeploymentID, data, 0).Err()
}

// Get returns the record for id or ErrDeploymentNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.DeploymentResult, error) {
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDeploymentNotFound
		}
		return nil, err
	}
	var result domain.DeploymentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode deployment %s: %w", id, err)
	}
	return &result, nil
}

// Delete removes the record for id or returns ErrDeploymentNotFound.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, s.prefix+id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrDeploymentNotFound
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
