package store

import (
	"context"
	"sync"
	"time"

	"github.com/edubyte/eubyte-backend/internal"
)

// MemoryStore keeps the ledger in process memory; it is lost on restart.
type MemoryStore struct {
	mu        sync.Mutex
	exchanges []internal.Exchange
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{exchanges: make([]internal.Exchange, 0, 64), nextID: 1}
}

func (s *MemoryStore) Append(_ context.Context, ex internal.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex.ID = s.nextID
	s.nextID++
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	s.exchanges = append(s.exchanges, ex)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]internal.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit = clampLimit(limit)
	if limit > len(s.exchanges) {
		limit = len(s.exchanges)
	}
	// newest first
	cp := make([]internal.Exchange, 0, limit)
	for i := len(s.exchanges) - 1; i >= len(s.exchanges)-limit; i-- {
		cp = append(cp, s.exchanges[i])
	}
	return cp, nil
}

func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.exchanges[:0]
	for _, ex := range s.exchanges {
		if !ex.CreatedAt.Before(before) {
			out = append(out, ex)
		}
	}
	removed := int64(len(s.exchanges) - len(out))
	s.exchanges = out
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }
