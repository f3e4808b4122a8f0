package storage

import (
	"context"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/rl1809/blood-bank/internal/port"
)

const boltBucketName = "ledger"

// BoltLedger keeps the ledger in a single BoltDB file. Bolt allows one
// read-write transaction at a time, so concurrent invocations are serialized.
type BoltLedger struct {
	db *bolt.DB
}

func NewBoltLedger(path string) (*BoltLedger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

func (b *BoltLedger) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := fn(&boltTx{bucket: tx.Bucket([]byte(boltBucketName))}); err != nil {
			return err
		}
		// returning an error rolls the transaction back
		return ctx.Err()
	})
}

func (b *BoltLedger) Close() error {
	return b.db.Close()
}

type boltTx struct {
	bucket *bolt.Bucket
}

func (t *boltTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// values returned by bolt are only valid for the life of the transaction
	return cloneBytes(t.bucket.Get([]byte(key))), nil
}

func (t *boltTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.bucket.Put([]byte(key), cloneBytes(value))
}
