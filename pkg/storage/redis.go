package storage

import (
	"fmt"

	"github.com/go-redis/redis"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// NewRedis connects to the Redis instance backing the refresh token store and fails fast if it
// cannot be reached.
func NewRedis(c RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password: c.Password,
		DB:       0,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}

	return client, nil
}
