package inttest

import (
	"testing"

	"github.com/go-redis/redis"
	"github.com/harryhq/mail-manager/pkg/storage"
	"github.com/orlangure/gnomock"
	gnomockRedis "github.com/orlangure/gnomock/preset/redis"
	"github.com/stretchr/testify/require"
)

// SetupRedis creates a Redis container connected the same way the server connects, so a failing
// ping fails the test right away.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	container, err := gnomock.Start(gnomockRedis.Preset())
	require.NoError(t, err, "failed to start Redis")
	t.Cleanup(func() { require.NoError(t, gnomock.Stop(container), "failed to stop Redis") })

	client, err := storage.NewRedis(storage.RedisConfig{
		Host: container.Host,
		Port: container.DefaultPort(),
	})
	require.NoError(t, err, "failed to connect to Redis")
	return client
}
