package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/joy095/travelmint/logger"
	"github.com/redis/go-redis/v9"
)

// NewClient parses REDIS_URL and checks connectivity once.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis client not initialized; REDIS_URL is empty")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoLogger.Info("Connected to Redis")
	return client, nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.ErrorLogger.Errorf("Error closing Redis connection: %v", err)
		return
	}
	logger.InfoLogger.Info("Redis connection closed")
}
