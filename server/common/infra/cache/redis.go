package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Connect dials redis and verifies the connection before handing the client
// out; a gateway that cannot reach its claim store must not start.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
