package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient returns nil when REDIS_URL is unset, malformed or the
// server does not answer a ping; callers fall back to in-memory limiting.
func NewRedisClient(url string, log logrus.FieldLogger) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, redis disabled")
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis ping failed, redis disabled")
		_ = client.Close()
		return nil
	}
	return client
}
