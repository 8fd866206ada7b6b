// The redisutils package holds the recurring Redis plumbing: opening
// clients and wiping state between tests.
package redisutils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewClient() initializes a Redis client for the given address.
func NewClient(address string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: address,
	})
}

// SetupTestClient() initializes a Redis client against the test instance.
func SetupTestClient() *redis.Client {
	return NewClient("localhost:6380")
}

// CleanupRedis() cleans up the Redis database between tests to ensure isolation.
func CleanupRedis(client *redis.Client) {
	client.FlushAll(context.Background())
}
