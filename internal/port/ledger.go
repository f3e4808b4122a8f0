package port

import "context"

type Ledger interface {
	// Get returns the latest value visible to the transaction, or nil if the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stages a write that becomes durable when the enclosing transaction commits
	Put(ctx context.Context, key string, value []byte) error
}

type LedgerStore interface {
	// RunInTransaction runs fn against a transactional ledger; any error from fn discards its writes
	RunInTransaction(ctx context.Context, fn func(tx Ledger) error) error

	// Close releases the underlying connection or file handle
	Close() error
}
