package cache

import (
	"context"
	"fmt"
	"time"

	"VibeFM/config"
	"VibeFM/logger"

	"github.com/redis/go-redis/v9"
)

// Connect dials Redis with the configured address. Returns an error when
// the server is unreachable so callers can run without a cache.
func Connect(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis",
		logger.String("host", cfg.RedisHost),
		logger.String("port", cfg.RedisPort))
	return client, nil
}
