package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts hits in the current window and starts the
// window clock on the first hit.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window counter shared by every API instance.
type RedisLimiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return count <= int64(l.Limit), nil
}
