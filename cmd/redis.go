package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"VibeFM/cache"
	"VibeFM/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Connect to the configured Redis server and run a round-trip read/write check.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		if cfg.RedisHost == "" {
			log.Fatal("No Redis host configured (REDIS_HOST)")
		}
		fmt.Printf("Redis: %s:%s, DB %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		fmt.Println("Connected.")

		ctx := context.Background()
		key := "vibefm:healthcheck"
		if err := client.Set(ctx, key, "ok", time.Minute).Err(); err != nil {
			log.Fatalf("Redis write failed: %v", err)
		}
		value, err := client.Get(ctx, key).Result()
		if err != nil || value != "ok" {
			log.Fatalf("Redis read failed: %v", err)
		}
		client.Del(ctx, key)
		fmt.Println("Round-trip check passed.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
