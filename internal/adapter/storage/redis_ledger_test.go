package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/blood-bank/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func cleanupRedisKeys(t *testing.T, client *redis.Client, pattern string) {
	ctx := context.Background()
	keys, err := client.Keys(ctx, ledgerKeyPrefix+pattern).Result()
	if err != nil {
		t.Fatalf("list keys failed: %v", err)
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func TestRedisLedger_Contract(t *testing.T) {
	client := getRedisClient(t)
	cleanupRedisKeys(t, client, "test-contract-*")
	ledger := NewRedisLedger(client, 100)
	defer ledger.Close()

	runLedgerContract(t, ledger, "test-contract-")
}

func TestRedisLedger_ConflictWithoutRetry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	cleanupRedisKeys(t, client, "test-conflict")

	ctx := context.Background()
	ledger := NewRedisLedger(client, 1)

	err := ledger.RunInTransaction(ctx, func(tx port.Ledger) error {
		if _, err := tx.Get(ctx, "test-conflict"); err != nil {
			return err
		}
		// write outside the watched connection
		if err := client.Set(ctx, ledgerKeyPrefix+"test-conflict", "competing", 0).Err(); err != nil {
			return err
		}
		return tx.Put(ctx, "test-conflict", []byte("ours"))
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}

	got, _ := client.Get(ctx, ledgerKeyPrefix+"test-conflict").Result()
	if got != "competing" {
		t.Errorf("expected competing value to survive, got %q", got)
	}
}
