package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"github.com/redis/go-redis/v9"
)

const (
	openOrderListKey       = "open_orders:list"
	openOrderGenerationKey = "open_orders:generation"
)

// ErrStaleOpenOrders is returned by SetOpen when the cache was invalidated
// after the caller read its generation; the list was not stored.
var ErrStaleOpenOrders = errors.New("open order list is stale")

// OpenOrderCache holds the browse view of open requests.
//
// Fills are guarded by a generation that every Invalidate bumps: a reader takes
// Generation before querying the database and passes it to SetOpen, which
// refuses to store a list read across an invalidation.
type OpenOrderCache interface {
	GetOpen(ctx context.Context) ([]models.OpenOrder, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetOpen(ctx context.Context, generation int64, orders []models.OpenOrder) error
	Invalidate(ctx context.Context) error
}

// RedisOpenOrderCache stores the browse view as one JSON value with a TTL
type RedisOpenOrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// NewRedisOpenOrderCache creates a cache entry living at most ttl
func NewRedisOpenOrderCache(rdb *redis.Client, ttl time.Duration) *RedisOpenOrderCache {
	return &RedisOpenOrderCache{rdb: rdb, ttl: ttl}
}

func (c *RedisOpenOrderCache) GetOpen(ctx context.Context) ([]models.OpenOrder, bool, error) {
	data, err := c.rdb.Get(ctx, openOrderListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var orders []models.OpenOrder
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, false, fmt.Errorf("decode cached open orders: %w", err)
	}
	return orders, true, nil
}

func (c *RedisOpenOrderCache) Generation(ctx context.Context) (int64, error) {
	return generationOf(ctx, c.rdb)
}

// SetOpen writes the list under WATCH on the generation key, so an Invalidate
// landing between the check and the write aborts the transaction.
func (c *RedisOpenOrderCache) SetOpen(ctx context.Context, generation int64, orders []models.OpenOrder) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStaleOpenOrders
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, openOrderListKey, data, c.ttl)
			return nil
		})
		return err
	}, openOrderGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleOpenOrders
	}
	return err
}

func (c *RedisOpenOrderCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, openOrderGenerationKey)
		pipe.Del(ctx, openOrderListKey)
		return nil
	})
	return err
}

// getter is the part of *redis.Client and *redis.Tx generationOf needs
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generationOf(ctx context.Context, r getter) (int64, error) {
	gen, err := r.Get(ctx, openOrderGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// noopOpenOrderCache is used when no cache is configured
type noopOpenOrderCache struct{}

func (noopOpenOrderCache) GetOpen(context.Context) ([]models.OpenOrder, bool, error) {
	return nil, false, nil
}

func (noopOpenOrderCache) Generation(context.Context) (int64, error) { return 0, nil }

func (noopOpenOrderCache) SetOpen(context.Context, int64, []models.OpenOrder) error { return nil }

func (noopOpenOrderCache) Invalidate(context.Context) error { return nil }
