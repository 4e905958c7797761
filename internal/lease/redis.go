package lease

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease stored under one key with SET NX PX.
type Redis struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedis(client redis.UniversalClient, key string, ttl time.Duration, log *slog.Logger) *Redis {
	return &Redis{client: client, key: key, ttl: ttl, log: log}
}

func (r *Redis) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
				r.log.Warn("release lease", "lease", r.key, "err", err)
			}
		})
	}
	return release, true, nil
}
