package meta

import (
	"context"
	"sort"
	"sync"

	"github.com/cleantrashrooms/upload_lite/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// MemoryStore хранит записи о загрузках только в оперативной памяти; удобно для тестов и dev.
type MemoryStore struct {
	mu      sync.RWMutex
	uploads map[string]models.Upload
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{uploads: map[string]models.Upload{}}
}

// Get возвращает запись по id или models.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (models.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return models.Upload{}, models.ErrNotFound
	}
	return u, nil
}

// Save добавляет запись; повторный id считается конфликтом, записи не перезаписываются.
func (s *MemoryStore) Save(_ context.Context, u models.Upload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uploads[u.ID]; ok {
		return models.ErrExists
	}
	s.uploads[u.ID] = u
	return nil
}

// List возвращает не более limit записей, новые первыми.
func (s *MemoryStore) List(_ context.Context, limit int) ([]models.Upload, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	out := make([]models.Upload, 0, len(s.uploads))
	for _, u := range s.uploads {
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].StoredName > out[j].StoredName
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// Close нужен для совместимости с PGStore.
func (s *MemoryStore) Close() error { return nil }

// ClampLimit приводит limit к диапазону [1, MaxListLimit]; 0 и отрицательные дают DefaultListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
