// Package cache keeps authenticated users in redis so the auth middleware
// can skip the database on most requests. A nil *UserCache is valid and
// caches nothing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/redis/go-redis/v9"
)

var logger = loggo.GetLogger("fundtrack.cache")

// Connect returns a client for addr, or nil when addr is empty. A server
// that does not answer a ping disables caching instead of failing startup.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		logger.Warningf("REDIS_ADDR is not set, user caching is disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Errorf("cannot reach redis at %s, user caching is disabled: %v", addr, err)
		_ = client.Close()
		return nil
	}

	logger.Infof("connected to redis at %s", addr)
	return client
}

type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewUserCache returns nil when client is nil.
func NewUserCache(client *redis.Client, ttl time.Duration) *UserCache {
	if client == nil {
		return nil
	}
	return &UserCache{client: client, ttl: ttl}
}

func userKey(userID uint) string {
	return fmt.Sprintf("user:%d:data", userID)
}

// Get decodes the cached entry for userID into dest and reports whether
// there was one. Redis failures count as a miss.
func (c *UserCache) Get(ctx context.Context, userID uint, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, userKey(userID)).Bytes()

	if errors.Is(err, redis.Nil) {
		return false
	}

	if err != nil {
		logger.Warningf("redis GET for user %d: %v", userID, err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warningf("dropping undecodable cache entry for user %d: %v", userID, err)
		c.Delete(ctx, userID)
		return false
	}

	return true
}

func (c *UserCache) Set(ctx context.Context, userID uint, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)

	if err != nil {
		logger.Errorf("encoding cache entry for user %d: %v", userID, err)
		return
	}

	if err := c.client.Set(ctx, userKey(userID), data, c.ttl).Err(); err != nil {
		logger.Warningf("redis SET for user %d: %v", userID, err)
	}
}

func (c *UserCache) Delete(ctx context.Context, userID uint) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, userKey(userID)).Err(); err != nil {
		logger.Warningf("redis DEL for user %d: %v", userID, err)
	}
}
