package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/blood-bank/internal/port"
)

const ledgerKeyPrefix = "ledger:"

// RedisLedger runs each transaction as WATCH on every key read, followed by a
// MULTI/EXEC of the buffered writes. EXEC aborts if a watched key changed.
type RedisLedger struct {
	client      *redis.Client
	maxAttempts int
}

func NewRedisLedger(client *redis.Client, maxAttempts int) *RedisLedger {
	return &RedisLedger{client: client, maxAttempts: maxAttempts}
}

func (r *RedisLedger) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	return runWithRetry(ctx, r.maxAttempts, func() error {
		err := r.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &redisTx{
				rtx:     rtx,
				watched: make(map[string]bool),
				writes:  make(map[string][]byte),
			}
			if err := fn(tx); err != nil {
				return err
			}
			return tx.exec(ctx)
		})
		if errors.Is(err, redis.TxFailedErr) {
			return ErrConflict
		}
		return err
	})
}

func (r *RedisLedger) Close() error {
	return r.client.Close()
}

type redisTx struct {
	rtx     *redis.Tx
	watched map[string]bool
	writes  map[string][]byte
	order   []string
}

func (t *redisTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return cloneBytes(v), nil
	}

	redisKey := ledgerKeyPrefix + key
	if !t.watched[key] {
		if err := t.rtx.Watch(ctx, redisKey).Err(); err != nil {
			return nil, fmt.Errorf("watch %q: %w", key, err)
		}
		t.watched[key] = true
	}

	value, err := t.rtx.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (t *redisTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = cloneBytes(value)
	return nil
}

func (t *redisTx) exec(ctx context.Context) error {
	if len(t.order) == 0 {
		return nil
	}

	_, err := t.rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range t.order {
			pipe.Set(ctx, ledgerKeyPrefix+key, t.writes[key], 0)
		}
		return nil
	})
	return err
}
