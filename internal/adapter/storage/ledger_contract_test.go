package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/blood-bank/internal/port"
)

// runLedgerContract exercises the behaviour every backend must share.
// keyPrefix keeps runs against shared servers apart.
func runLedgerContract(t *testing.T, store port.LedgerStore, keyPrefix string) {
	ctx := context.Background()
	key := func(k string) string { return keyPrefix + k }

	t.Run("absent key reads as nil", func(t *testing.T) {
		err := store.RunInTransaction(ctx, func(tx port.Ledger) error {
			v, err := tx.Get(ctx, key("missing"))
			require.NoError(t, err)
			assert.Nil(t, v)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("read your writes", func(t *testing.T) {
		err := store.RunInTransaction(ctx, func(tx port.Ledger) error {
			require.NoError(t, tx.Put(ctx, key("ryw"), []byte(`{"n":1}`)))
			v, err := tx.Get(ctx, key("ryw"))
			require.NoError(t, err)
			assert.Equal(t, `{"n":1}`, string(v))
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("committed writes are visible", func(t *testing.T) {
		require.NoError(t, store.RunInTransaction(ctx, func(tx port.Ledger) error {
			return tx.Put(ctx, key("committed"), []byte("v1"))
		}))

		assert.Equal(t, "v1", string(readKey(t, store, key("committed"))))
	})

	t.Run("error discards all writes", func(t *testing.T) {
		require.NoError(t, store.RunInTransaction(ctx, func(tx port.Ledger) error {
			return tx.Put(ctx, key("atomic"), []byte("before"))
		}))

		boom := errors.New("validation failed")
		err := store.RunInTransaction(ctx, func(tx port.Ledger) error {
			if err := tx.Put(ctx, key("atomic"), []byte("after")); err != nil {
				return err
			}
			if err := tx.Put(ctx, key("atomic-other"), []byte("after")); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		assert.Equal(t, "before", string(readKey(t, store, key("atomic"))))
		assert.Nil(t, readKey(t, store, key("atomic-other")))
	})

	t.Run("canceled context rejects reads and writes", func(t *testing.T) {
		require.NoError(t, store.RunInTransaction(ctx, func(tx port.Ledger) error {
			return tx.Put(ctx, key("canceled"), []byte("kept"))
		}))

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		err := store.RunInTransaction(ctx, func(tx port.Ledger) error {
			_, err := tx.Get(canceled, key("canceled"))
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, tx.Put(canceled, key("canceled"), []byte("lost")), context.Canceled)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, "kept", string(readKey(t, store, key("canceled"))))
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		counter := key("counter")
		require.NoError(t, store.RunInTransaction(ctx, func(tx port.Ledger) error {
			return tx.Put(ctx, counter, []byte("0"))
		}))

		workers := 10
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := store.RunInTransaction(ctx, func(tx port.Ledger) error {
					v, err := tx.Get(ctx, counter)
					if err != nil {
						return err
					}
					n, err := strconv.Atoi(string(v))
					if err != nil {
						return err
					}
					return tx.Put(ctx, counter, []byte(strconv.Itoa(n+1)))
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, strconv.Itoa(workers), string(readKey(t, store, counter)))
	})
}

func readKey(t *testing.T, store port.LedgerStore, key string) []byte {
	t.Helper()
	var out []byte
	err := store.RunInTransaction(context.Background(), func(tx port.Ledger) error {
		v, err := tx.Get(context.Background(), key)
		out = v
		return err
	})
	require.NoError(t, err)
	return out
}
