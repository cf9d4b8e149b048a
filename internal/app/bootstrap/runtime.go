// Package bootstrap builds the process-wide dependencies of cmd/api from
// configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ateliercarvalho/atelier/internal/bookings"
	appconfig "github.com/ateliercarvalho/atelier/internal/config"
	"github.com/ateliercarvalho/atelier/internal/session"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const connectTimeout = 5 * time.Second

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore keeps sessions in Redis when a client is available and
// in process memory otherwise.
func BuildSessionStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) session.Store {
	if client == nil {
		if logger != nil {
			logger.Warn("session store is in memory; sessions end with the process")
		}
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(client, ttl)
}

// BuildPostgresPool connects to databaseURL. An empty URL, or a database
// that cannot be reached, yields nil.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, databaseURL)
	if err != nil {
		logger.Warn("postgres not available", "error", err)
		return nil
	}
	if err := pool.Ping(connectCtx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// BuildLedger returns the booking ledger, or nil without a database.
func BuildLedger(pool *pgxpool.Pool, logger *logging.Logger) *bookings.Service {
	if pool == nil {
		return nil
	}
	return bookings.NewService(bookings.NewRepository(pool), logger)
}
