package infra

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tnqbao/gau-media-service/config"
)

var ErrCacheMiss = errors.New("key not found in cache")

const presignedURLKeyPrefix = "media:url:"

type RedisClient struct {
	Client *redis.Client
}

func InitRedisClient(cfg *config.EnvConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisHost + ":" + cfg.Redis.RedisPort,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	log.Println("Connected to Redis:", cfg.Redis.RedisPort+" on "+cfg.Redis.RedisHost)

	return &RedisClient{Client: client}
}

func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// GetPresignedURL returns the cached URL for a media id, or ErrCacheMiss.
func (r *RedisClient) GetPresignedURL(ctx context.Context, mediaID string) (string, error) {
	var url string
	if err := r.Get(ctx, presignedURLKeyPrefix+mediaID, &url); err != nil {
		return "", err
	}
	return url, nil
}

func (r *RedisClient) SetPresignedURL(ctx context.Context, mediaID, url string, ttl time.Duration) error {
	return r.Set(ctx, presignedURLKeyPrefix+mediaID, url, ttl)
}

func (r *RedisClient) DeletePresignedURL(ctx context.Context, mediaID string) error {
	return r.Delete(ctx, presignedURLKeyPrefix+mediaID)
}
