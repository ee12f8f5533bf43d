package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-discovery-catalog-service/internal/config"
)

const redisClientName = "catalog-service"

// NewRedis returns the client shared by the catalog response cache and the
// rate limiter, or nil when Redis is not configured or does not answer within
// timeout. Both consumers treat a nil client as disabled.
func NewRedis(ctx context.Context, cfg config.RedisConfig, timeout time.Duration) *redis.Client {
	if cfg.Addr == "" {
		slog.Info("Redis not configured, running without cache and rate limit")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		ClientName:  redisClientName,
		DialTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		slog.Warn("Redis unavailable, running without cache and rate limit", "addr", cfg.Addr, "error", err)
		return nil
	}

	slog.Info("connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return client
}
