package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"briq/pkg/platform/sentinel"

	"github.com/redis/go-redis/v9"
)

const (
	fieldData     = "data"
	fieldRevision = "rev"
)

// RedisBackend stores each profile as a hash {data, rev}. Conditional writes
// use WATCH/MULTI so concurrent writers on the same key lose with ErrConflict.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Load(ctx context.Context, key string) (Record, error) {
	return loadRedis(ctx, b.client, key)
}

func (b *RedisBackend) Insert(ctx context.Context, key string, data []byte) (uint64, error) {
	rev, err := b.CompareAndPut(ctx, key, data, 0)
	if errors.Is(err, sentinel.ErrConflict) {
		return 0, sentinel.ErrAlreadyUsed
	}
	return rev, err
}

func (b *RedisBackend) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	pipe := b.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, fieldRevision, 1)
	pipe.HSet(ctx, key, fieldData, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("put profile record: %w", err)
	}
	return uint64(incr.Val()), nil
}

func (b *RedisBackend) CompareAndPut(ctx context.Context, key string, data []byte, expected uint64) (uint64, error) {
	next := expected + 1
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := loadRedis(ctx, tx, key)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			current.Revision = 0
		case err != nil:
			return err
		}
		if current.Revision != expected {
			return sentinel.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldData, data, fieldRevision, next)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, sentinel.ErrConflict) {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("compare-and-put profile record: %w", err)
	}
	return next, nil
}

func loadRedis(ctx context.Context, c redis.Cmdable, key string) (Record, error) {
	vals, err := c.HMGet(ctx, key, fieldData, fieldRevision).Result()
	if err != nil {
		return Record{}, fmt.Errorf("load profile record: %w", err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	var rev uint64
	if s, ok := vals[1].(string); ok {
		rev, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("load profile record: bad revision %q: %w", s, err)
		}
	}
	return Record{Data: []byte(raw), Revision: rev}, nil
}
