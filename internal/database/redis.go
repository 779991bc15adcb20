package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cinemai/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates a Redis client for the recommendation cache.
func NewRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("connected to Redis", "addr", cfg.RedisAddr)
	return client, nil
}
