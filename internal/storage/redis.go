package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig selects the Redis database a RedisStore drives
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	FlushOnOpen bool
	DialTimeout time.Duration
}

// RedisStore maps the container contract onto Redis string keys.
// Insert is SETNX, a non-inserting Update is SET XX. Size is DBSIZE, so the
// selected database should be dedicated to the benchmark.
type RedisStore struct {
	client *redis.Client
	prefix string
	ctx    context.Context
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(config RedisConfig) (*RedisStore, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "kvbench:"
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", config.Addr, err)
	}

	if config.FlushOnOpen {
		if err := client.FlushDB(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to flush redis db %d: %w", config.DB, err)
		}
	}

	return &RedisStore{
		client: client,
		prefix: config.KeyPrefix,
		ctx:    ctx,
	}, nil
}

func (r *RedisStore) key(k int64) string {
	return r.prefix + strconv.FormatInt(k, 10)
}

func (r *RedisStore) Insert(key, value int64) bool {
	ok, err := r.client.SetNX(r.ctx, r.key(key), value, 0).Result()
	return err == nil && ok
}

func (r *RedisStore) Update(key, value int64, allowInsert bool) (bool, bool) {
	k := r.key(key)
	found, err := r.client.SetXX(r.ctx, k, value, 0).Result()
	if err != nil {
		return false, false
	}
	if found || !allowInsert {
		return found, false
	}
	inserted, err := r.client.SetNX(r.ctx, k, value, 0).Result()
	if err != nil {
		return false, false
	}
	return false, inserted
}

func (r *RedisStore) Find(key int64) (int64, bool) {
	v, err := r.client.Get(r.ctx, r.key(key)).Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *RedisStore) Erase(key int64) bool {
	n, err := r.client.Del(r.ctx, r.key(key)).Result()
	return err == nil && n > 0
}

func (r *RedisStore) Contains(key int64) bool {
	n, err := r.client.Exists(r.ctx, r.key(key)).Result()
	return err == nil && n > 0
}

func (r *RedisStore) Size() int {
	n, err := r.client.DBSize(r.ctx).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"keys": r.Size(),
	}
	poolStats := r.client.PoolStats()
	stats["pool_hits"] = poolStats.Hits
	stats["pool_misses"] = poolStats.Misses
	stats["pool_total_conns"] = poolStats.TotalConns
	return stats
}
