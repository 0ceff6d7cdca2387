package repository

import (
	"context"
	"sort"
	"sync"

	"AssetBrief/internal/domain/models"
)

// MemoryHistoryStore implements HistoryStore in process memory. It backs
// deployments without ClickHouse and the test suite.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.HistoryRecord
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{records: make(map[string]*models.HistoryRecord)}
}

func (s *MemoryHistoryStore) Put(_ context.Context, rec *models.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Last write wins, same as the ClickHouse engine.
	clone := *rec
	s.records[rec.Fingerprint] = &clone
	return nil
}

func (s *MemoryHistoryStore) Get(_ context.Context, fingerprint string) (*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fingerprint]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *MemoryHistoryStore) List(_ context.Context, symbol string, limit int) ([]*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.HistoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		if symbol != "" && rec.Symbol != symbol {
			continue
		}
		clone := *rec
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryHistoryStore) Health(context.Context) error { return nil }

func (s *MemoryHistoryStore) Close() error { return nil }
