package testutil

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
)

// SetupTestRedis connects to TEST_REDIS_URL and flushes the selected
// database when the test ends. The test is skipped when no Redis is configured.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := GetEnv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("failed to parse TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}
