package redisc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Best-effort mirror of the in-memory connection registry. The TTL covers the
// case where a process dies without running its disconnect path.
const presenceTTL = 120 * time.Second

const onlineSetKey = "online_connections"

func SetOnline(client *redis.Client, connID string) error {
	ctx := context.Background()
	pipe := client.Pipeline()
	pipe.SAdd(ctx, onlineSetKey, connID)
	pipe.Set(ctx, "presence:"+connID, "online", presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func SetOffline(client *redis.Client, connID string) error {
	ctx := context.Background()
	pipe := client.Pipeline()
	pipe.SRem(ctx, onlineSetKey, connID)
	pipe.Del(ctx, "presence:"+connID)
	_, err := pipe.Exec(ctx)
	return err
}

func GetOnlineConnections(client *redis.Client) ([]string, error) {
	return client.SMembers(context.Background(), onlineSetKey).Result()
}

func RefreshPresence(client *redis.Client, connID string) error {
	return client.Expire(context.Background(), "presence:"+connID, presenceTTL).Err()
}
