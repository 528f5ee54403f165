package memory

import (
	"context"
	"maps"
)

// TxManager serializes whole cycles on the store lock. Repositories called
// from inside fn must not take the lock again. Records saved by a failing
// fn are discarded.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	before := maps.Clone(t.store.records)
	if err := fn(withLocked(ctx)); err != nil {
		t.store.records = before
		return err
	}
	return nil
}
