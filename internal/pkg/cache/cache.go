package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/jHLuno/telfera/internal/pkg/env"
)

var (
	client    *redis.Client
	connected bool
)

// SetupCache initializes the connection to the Redis server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0, // sessions use DB 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		connected = false
		log.Warnf("[Cache] could not connect to redis at %s:%s: %v", host, port, err)
	} else {
		connected = true
		log.Infof("[Cache] connected to redis: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Available reports whether the last connection check succeeded
func Available() bool {
	return client != nil && connected
}

// ClientIfAvailable returns the client only when Redis answered the ping
func ClientIfAvailable() *redis.Client {
	if !Available() {
		return nil
	}
	return client
}
