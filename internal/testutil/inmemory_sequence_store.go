package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/billora/billora/internal/types"
)

// InMemorySequenceStore implements sequence.Repository with plain
// mutex-guarded counters
type InMemorySequenceStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		values: make(map[string]int64),
	}
}

func (s *InMemorySequenceStore) key(ctx context.Context, scope types.SequenceScope, year int) string {
	return fmt.Sprintf("%s:%s:%d", types.GetTenantID(ctx), scope, year)
}

func (s *InMemorySequenceStore) NextValue(ctx context.Context, scope types.SequenceScope, year int, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(ctx, scope, year)
	s.values[key]++
	return s.values[key], nil
}

func (s *InMemorySequenceStore) CurrentValue(ctx context.Context, scope types.SequenceScope, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.values[s.key(ctx, scope, year)], nil
}

func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]int64)
}
