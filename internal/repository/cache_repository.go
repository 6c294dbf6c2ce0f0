package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/util"
	"strconv"
	"time"
)

// stateVersionTTL : lifetime of the invalidation counter, refreshed on every bump
const stateVersionTTL = 24 * time.Hour

// setStateScript stores the state only while the version still matches ARGV[1]
var setStateScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if (current or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// CacheRepository : status read model of documents in Redis
type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

// StateVersion : invalidation counter of the document, 0 when never invalidated
func (r *CacheRepository) StateVersion(ctx context.Context, documentUUID string) (int64, error) {
	version, err := r.client.Client.Get(ctx, r.versionKey(documentUUID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, util.LogError("[CacheRepo] failed to read document state version", err)
	}
	return version, nil
}

// SetState : stores the state read at version, stored=false when an invalidation happened since
func (r *CacheRepository) SetState(ctx context.Context, state *model.DocumentState, version int64) (bool, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return false, util.LogError("[CacheRepo] failed to encode document state", err)
	}

	keys := []string{r.key(state.DocumentUUID), r.versionKey(state.DocumentUUID)}
	stored, err := setStateScript.Run(ctx, r.client.Client, keys,
		strconv.FormatInt(version, 10), string(data), r.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, util.LogError("[CacheRepo] failed to store document state", err)
	}

	return stored == 1, nil
}

// GetState : nil, nil on a cache miss
func (r *CacheRepository) GetState(ctx context.Context, documentUUID string) (*model.DocumentState, error) {
	val, err := r.client.Client.Get(ctx, r.key(documentUUID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, util.LogError("[CacheRepo] failed to read document state", err)
	}

	var state model.DocumentState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, util.LogError("[CacheRepo] failed to decode cached document state", err)
	}
	return &state, nil
}

// DeleteState : bumps the version and drops the cached state in one transaction
func (r *CacheRepository) DeleteState(ctx context.Context, documentUUID string) error {
	versionKey := r.versionKey(documentUUID)
	_, err := r.client.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, stateVersionTTL)
		pipe.Del(ctx, r.key(documentUUID))
		return nil
	})
	if err != nil {
		return util.LogError("[CacheRepo] failed to drop document state", err)
	}
	return nil
}

func (r *CacheRepository) key(uuid string) string {
	return fmt.Sprintf("document:state:%s", uuid)
}

func (r *CacheRepository) versionKey(uuid string) string {
	return fmt.Sprintf("document:state-version:%s", uuid)
}
