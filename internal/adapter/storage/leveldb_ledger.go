package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/rl1809/blood-bank/internal/port"
)

// LevelDBLedger uses goleveldb transactions. OpenTransaction blocks other
// writers until commit or discard, which gives each invocation exclusive
// write access.
type LevelDBLedger struct {
	db *leveldb.DB
}

func NewLevelDBLedger(path string) (*LevelDBLedger, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &LevelDBLedger{db: db}, nil
}

func (l *LevelDBLedger) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	trx, err := l.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("open transaction: %w", err)
	}

	if err := fn(&levelDBTx{trx: trx}); err != nil {
		trx.Discard()
		return err
	}
	if err := ctx.Err(); err != nil {
		trx.Discard()
		return err
	}

	if err := trx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (l *LevelDBLedger) Close() error {
	return l.db.Close()
}

type levelDBTx struct {
	trx *leveldb.Transaction
}

func (t *levelDBTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, err := t.trx.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (t *levelDBTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.trx.Put([]byte(key), value, nil)
}
