package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	redisDataField    = "data"
	redisVersionField = "version"
)

// RedisGateway stores each key as a hash holding the blob and a version
// counter. Conditional writes use WATCH/MULTI.
type RedisGateway struct {
	client *redis.Client
	prefix string
}

// NewRedisGateway wraps an existing client. prefix namespaces the keys.
func NewRedisGateway(client *redis.Client, prefix string) *RedisGateway {
	return &RedisGateway{client: client, prefix: prefix}
}

func (g *RedisGateway) key(k string) string {
	return g.prefix + k
}

func (g *RedisGateway) IsAvailable(ctx context.Context) (bool, error) {
	if err := g.client.Ping(ctx).Err(); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *RedisGateway) GetData(ctx context.Context, key string) ([]byte, error) {
	b, err := g.GetVersioned(ctx, key)
	return b.Data, err
}

func (g *RedisGateway) GetVersioned(ctx context.Context, key string) (Blob, error) {
	return readRedisBlob(ctx, g.client, g.key(key))
}

type hmGetter interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func readRedisBlob(ctx context.Context, c hmGetter, key string) (Blob, error) {
	vals, err := c.HMGet(ctx, key, redisDataField, redisVersionField).Result()
	if err != nil {
		return Blob{}, err
	}
	if len(vals) != 2 || vals[1] == nil {
		return Blob{}, nil
	}
	var data []byte
	if s, ok := vals[0].(string); ok {
		data = []byte(s)
	}
	version, _ := vals[1].(string)
	return Blob{Data: data, Version: version}, nil
}

func (g *RedisGateway) SetData(ctx context.Context, key string, data []byte) (Receipt, error) {
	k := g.key(key)
	_, err := g.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, redisDataField, data)
		p.HIncrBy(ctx, k, redisVersionField, 1)
		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("redis set %s: %w", key, err)
	}
	return newReceipt(key, data), nil
}

func (g *RedisGateway) SetIfVersion(ctx context.Context, key string, data []byte, version string) (Receipt, error) {
	k := g.key(key)
	err := g.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readRedisBlob(ctx, tx, k)
		if err != nil {
			return err
		}
		if current.Version != version {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, k, redisDataField, data)
			p.HIncrBy(ctx, k, redisVersionField, 1)
			return nil
		})
		return err
	}, k)

	switch {
	case err == nil:
		return newReceipt(key, data), nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, ErrVersionConflict):
		return Receipt{}, ErrVersionConflict
	default:
		return Receipt{}, fmt.Errorf("redis conditional set %s: %w", key, err)
	}
}

func (g *RedisGateway) Address(ctx context.Context) (string, error) {
	opts := g.client.Options()
	return "redis://" + opts.Addr + "/" + strconv.Itoa(opts.DB) + "/" + g.prefix, nil
}

func (g *RedisGateway) Backend() string { return BackendRedis }

func (g *RedisGateway) Close() error {
	return g.client.Close()
}
