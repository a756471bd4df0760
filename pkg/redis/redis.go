package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuwa/kasuwa-backend/config"
	"github.com/kasuwa/kasuwa-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// sessionTTL bounds how long an idle guest session stays known. Every request
// carrying the session refreshes it.
const sessionTTL = 30 * 24 * time.Hour

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// BlacklistToken adds a token to the blacklist
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return val == "revoked", nil
}

// ErrNotInitialized is returned by the session helpers when Init has not
// run. Session tracking is best effort, so callers treat it as a miss.
var ErrNotInitialized = fmt.Errorf("redis client not initialized")

// TouchSession registers a guest session ID and refreshes its TTL.
func TouchSession(ctx context.Context, sessionID string) error {
	if client == nil {
		return ErrNotInitialized
	}
	key := fmt.Sprintf("session:%s", sessionID)
	if err := client.Set(ctx, key, time.Now().Unix(), sessionTTL).Err(); err != nil {
		logger.Error("Failed to touch guest session", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}

// SessionKnown reports whether the guest session ID has been seen and is
// still live.
func SessionKnown(ctx context.Context, sessionID string) (bool, error) {
	if client == nil {
		return false, ErrNotInitialized
	}
	key := fmt.Sprintf("session:%s", sessionID)
	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		logger.Error("Failed to check guest session", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return false, err
	}
	return n > 0, nil
}
