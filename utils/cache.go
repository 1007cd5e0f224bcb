// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"masu/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SnapshotCacheClient stores wizard session snapshots keyed by identity handle.
	SnapshotCacheClient *redis.Client
	// HandleCacheClient stores durable guest identity handles.
	HandleCacheClient *redis.Client
)

// InitRedis initializes all Redis clients used by the wizard engine.
func InitRedis() {
	InitSnapshotCache()
	InitHandleCache()
}

// InitSnapshotCache initializes the Redis client for session snapshots.
func InitSnapshotCache() {
	SnapshotCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSnapshotDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SnapshotCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Snapshot Cache): %v", err)
	}
}

// GetSnapshotCacheClient returns the snapshot cache client.
func GetSnapshotCacheClient() *redis.Client {
	if SnapshotCacheClient == nil {
		InitSnapshotCache()
	}
	return SnapshotCacheClient
}

// InitHandleCache initializes the Redis client for guest handle continuity.
func InitHandleCache() {
	HandleCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHandleDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := HandleCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Handle Cache): %v", err)
	}
}

// IsCacheMiss reports whether the error is a plain key miss.
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}

// GetHandleCacheClient returns the Redis client for guest handles.
func GetHandleCacheClient() *redis.Client {
	if HandleCacheClient == nil {
		InitHandleCache()
	}
	return HandleCacheClient
}
