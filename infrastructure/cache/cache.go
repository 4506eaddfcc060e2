package cache

import (
	"context"

	"social-publisher/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("addr", addr).WithError(err).Warn("Redis ping failed")
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
