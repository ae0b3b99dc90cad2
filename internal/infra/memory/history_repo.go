package memory

import (
	"sync"
	"time"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// HistoryRepo — история инжеста в памяти, для тестов.
type HistoryRepo struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Load() []domain.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.HistoryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *HistoryRepo) Append(rows []domain.Row) error {
	if len(rows) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, row := range rows {
		r.entries = append(r.entries, domain.HistoryEntry{Row: row, CreatedAt: now})
	}
	return nil
}
