package memory

import (
	"context"
	"strconv"
	"sync"

	"thorplan/internal/app/ports"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]ports.ActionRecord
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]ports.ActionRecord),
	}
}

func recordKey(scene, counter int) string {
	return strconv.Itoa(scene) + "::" + strconv.Itoa(counter)
}

type lockedKeyType struct{}

var lockedKey = lockedKeyType{}

func withLocked(ctx context.Context) context.Context {
	return context.WithValue(ctx, lockedKey, true)
}

// read runs fn under the read lock unless ctx already holds the store lock.
func (s *Store) read(ctx context.Context, fn func()) {
	if held, _ := ctx.Value(lockedKey).(bool); !held {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if held, _ := ctx.Value(lockedKey).(bool); !held {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}
