package repository

import (
	"context"
	"sync"
	"time"

	"github.com/zhejian/shortcodes/internal/model"
)

// MemoryRepository is an in-memory implementation of ShortLinkRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	links map[string]model.ShortLink
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		links: make(map[string]model.ShortLink),
		now:   time.Now,
	}
}

func (m *MemoryRepository) Create(_ context.Context, link *model.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.ShortCode]; ok {
		return ErrCodeConflict
	}

	if link.CreatedAt.IsZero() {
		link.CreatedAt = m.now().UTC()
	}
	m.links[link.ShortCode] = *link

	return nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, code string) (*model.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, ErrNotFound
	}

	return &link, nil
}

func (m *MemoryRepository) Exists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.links[code]

	return ok, nil
}

// Len returns the number of stored links.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.links)
}

var _ ShortLinkRepository = (*MemoryRepository)(nil)
