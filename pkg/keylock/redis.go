package keylock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisLockTTL           = 30 * time.Second
	redisLockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only when it still holds our token, so an
// expired-and-reacquired lock is never released by the previous holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLocker implements Locker with SET NX EX. The TTL bounds the hold time
// of a crashed holder; live holders release explicitly.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	for {
		ok, err := l.client.SetNX(ctx, key, token, redisLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockRetryInterval):
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_, _ = l.client.Eval(context.Background(), releaseScript, []string{key}, token).Result()
		})
	}
	return release, nil
}
