package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a global Redis client instance; nil when REDIS_ADDR is unset or unreachable.
var RedisClient *redis.Client

// InitRedis connects to Redis and disables it when the server does not answer.
func InitRedis(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		RedisClient = nil
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		RedisClient = nil
		return nil
	}
	RedisClient = client
	return client
}
