package cache

import (
	"context"
	"fmt"
	"rental-location/internal/logger"
	"time"

	"github.com/go-redis/redis/v8"
)

// Connect opens a Redis client and tests the connection
func Connect(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Successfully connected to Redis at %s", addr))
	return client, nil
}
