package lib

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

func gatePassKey(location string) string {
	return fmt.Sprintf("gatepass:%s:latest", slug.Make(location))
}

// CacheGatePassSerial remembers the most recently issued gate-pass serial for
// a location so the next issuance can skip the descending-sort query.
func CacheGatePassSerial(ctx context.Context, location, serial string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Set(ctx, gatePassKey(location), serial, 24*time.Hour).Err(); err != nil {
		log.Printf("[redis] Error caching gate pass serial for %s: %s\n", location, err.Error())
	}
}

// CachedGatePassSerial returns the cached latest serial for a location, or ""
// on a miss. The cache is advisory; the store remains authoritative.
func CachedGatePassSerial(ctx context.Context, location string) string {
	rd := GetRedisClient()
	if rd == nil {
		return ""
	}
	val, err := rd.Get(ctx, gatePassKey(location)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[redis] Error reading gate pass serial for %s: %s\n", location, err.Error())
		}
		return ""
	}
	return val
}

// DropGatePassSerial invalidates the cached serial for a location. Used when
// a cached value fails to parse rather than trusting it forward.
func DropGatePassSerial(ctx context.Context, location string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	rd.Del(ctx, gatePassKey(location))
}

func sessionKey(tokenID string) string {
	return fmt.Sprintf("session:%s", tokenID)
}

// CacheSession records which user a session token belongs to, expiring with
// the token. Advisory only; the user row stays authoritative.
func CacheSession(ctx context.Context, tokenID, userID string, ttl time.Duration) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if err := rd.Set(ctx, sessionKey(tokenID), userID, ttl).Err(); err != nil {
		log.Printf("[redis] Error caching session %s: %s\n", tokenID, err.Error())
	}
}

// SessionOwner returns the cached owner of a session token, or "" on a miss.
func SessionOwner(ctx context.Context, tokenID string) string {
	rd := GetRedisClient()
	if rd == nil {
		return ""
	}
	val, err := rd.Get(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[redis] Error reading session %s: %s\n", tokenID, err.Error())
		}
		return ""
	}
	return val
}

// DropSession forgets a session token on logout or password reset.
func DropSession(ctx context.Context, tokenID string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	rd.Del(ctx, sessionKey(tokenID))
}
