package storage

import (
	"context"
	"sync"

	"github.com/rl1809/blood-bank/internal/port"
)

type versionedValue struct {
	value   []byte
	version uint64
}

// MemoryLedger is an in-process ledger with optimistic concurrency control:
// reads record the version they observed and commit fails with ErrConflict
// if any of them moved in the meantime.
type MemoryLedger struct {
	mu          sync.Mutex
	data        map[string]versionedValue
	seq         uint64
	maxAttempts int
}

func NewMemoryLedger(maxAttempts int) *MemoryLedger {
	return &MemoryLedger{
		data:        make(map[string]versionedValue),
		maxAttempts: maxAttempts,
	}
}

func (m *MemoryLedger) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	return runWithRetry(ctx, m.maxAttempts, func() error {
		tx := &memoryTx{
			ledger: m,
			reads:  make(map[string]uint64),
			writes: make(map[string][]byte),
		}
		if err := fn(tx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return m.commit(tx)
	})
}

func (m *MemoryLedger) commit(tx *memoryTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, seen := range tx.reads {
		if m.data[key].version != seen {
			return ErrConflict
		}
	}

	for _, key := range tx.order {
		m.seq++
		m.data[key] = versionedValue{value: tx.writes[key], version: m.seq}
	}

	return nil
}

func (m *MemoryLedger) read(key string) versionedValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

func (m *MemoryLedger) Close() error {
	return nil
}

type memoryTx struct {
	ledger *MemoryLedger
	reads  map[string]uint64
	writes map[string][]byte
	order  []string
}

func (t *memoryTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return cloneBytes(v), nil
	}

	current := t.ledger.read(key)
	if _, seen := t.reads[key]; !seen {
		t.reads[key] = current.version
	}

	return cloneBytes(current.value), nil
}

func (t *memoryTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = cloneBytes(value)
	return nil
}
