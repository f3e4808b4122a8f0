package service

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/blood-bank/internal/port"
)

// Mock LedgerStore: transactions run one at a time and buffer their writes
// until commit.
type mockStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	failGet   map[string]error
	failPut   map[string]error
	commitErr error
	commits   int
}

func newMockStore() *mockStore {
	return &mockStore{
		data:    make(map[string][]byte),
		failGet: make(map[string]error),
		failPut: make(map[string]error),
	}
}

func (m *mockStore) RunInTransaction(ctx context.Context, fn func(tx port.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{store: m, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return m.commitErr
	}
	for k, v := range tx.writes {
		m.data[k] = v
	}
	m.commits++
	return nil
}

func (m *mockStore) Close() error { return nil }

func (m *mockStore) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

type mockTx struct {
	store  *mockStore
	writes map[string][]byte
}

func (t *mockTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := t.store.failGet[key]; err != nil {
		return nil, err
	}
	if v, ok := t.writes[key]; ok {
		return v, nil
	}
	return t.store.data[key], nil
}

func (t *mockTx) Put(ctx context.Context, key string, value []byte) error {
	if err := t.store.failPut[key]; err != nil {
		return err
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

type observation struct {
	function string
	outcome  string
}

// Mock MetricsRecorder
type mockMetrics struct {
	mu           sync.Mutex
	observations []observation
}

func (m *mockMetrics) Observe(ctx context.Context, function, outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations = append(m.observations, observation{function: function, outcome: outcome})
}

func (m *mockMetrics) last() observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.observations) == 0 {
		return observation{}
	}
	return m.observations[len(m.observations)-1]
}
