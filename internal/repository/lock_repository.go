package repository

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"kpp-siprima/config"
	"kpp-siprima/internal/util"
	"time"
)

// releaseScript deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockRepository : per-document sign lock in Redis
type LockRepository struct {
	client *config.RedisClient
}

func NewLockRepository(rdb *config.RedisClient) *LockRepository {
	return &LockRepository{client: rdb}
}

// Acquire : SET NX with a random token, ok=false when the document is already locked
func (r *LockRepository) Acquire(ctx context.Context, documentUUID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	key := r.key(documentUUID)

	ok, err := r.client.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, util.LogError("[LockRepo] failed to acquire document lock", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client.Client, []string{key}, token).Err(); err != nil {
			return util.LogError("[LockRepo] failed to release document lock", err)
		}
		return nil
	}
	return release, true, nil
}

func (r *LockRepository) key(uuid string) string {
	return fmt.Sprintf("document:lock:%s", uuid)
}
