// Package cache provides the optional Redis session backend.
package cache

import (
	"context"
	"fmt"

	"github.com/usergate/usergate/logger"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis connects to the Redis server at redisAddr and verifies the
// connection.
func InitRedis(redisAddr string) error {
	client = redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", redisAddr, err)
	}
	logger.Info("Connected to Redis at", redisAddr)
	return nil
}

func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
