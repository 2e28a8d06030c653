package utils

import (
	"context"
	"strings"

	"young_network/logger"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to Redis. url may be a bare host:port or a redis:// URL.
func InitRedis(url, password string, db int) (*redis.Client, error) {
	opts := &redis.Options{Addr: url, Password: password, DB: db}
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Log.Info("Redis connected")
	return client, nil
}

func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
