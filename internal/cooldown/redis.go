package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "scan-cooldown:"

// allowScript claims the key for one window or reports its remaining TTL in
// one round trip. A key left without a TTL is reclaimed.
var allowScript = redis.NewScript(`
if redis.call("SET", KEYS[1], 1, "NX", "PX", ARGV[1]) then
	return {1, 0}
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl <= 0 then
	redis.call("SET", KEYS[1], 1, "PX", ARGV[1])
	return {1, 0}
end
return {0, ttl}
`)

// RedisGate shares the window between replicas. The first scan sets a key with
// the window as TTL; repeats find the key and read its remaining TTL.
type RedisGate struct {
	client *redis.Client
	window time.Duration
}

func NewRedisGate(client *redis.Client, window time.Duration) *RedisGate {
	return &RedisGate{client: client, window: window}
}

func (g *RedisGate) Allow(ctx context.Context, sessionID, barcode string) (Decision, error) {
	k := keyPrefix + key(sessionID, barcode)

	windowMs := max(g.window.Milliseconds(), 1)
	res, err := allowScript.Run(ctx, g.client, []string{k}, windowMs).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("cooldown check: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("cooldown check: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return Decision{Allowed: true}, nil
	}
	return Decision{RetryAfter: time.Duration(res[1]) * time.Millisecond}, nil
}
