package users

import (
	"context"
	"sync"

	"github.com/arogya-ai/arogya/backend/internal/models"
)

// MemoryUserRepository is an in-process UserRepository used by unit tests and
// local runs without a document store. Creates is the number of inserts performed.
type MemoryUserRepository struct {
	mu      sync.Mutex
	store   map[string]models.User
	Creates int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: make(map[string]models.User)}
}

func (m *MemoryUserRepository) CreateIfAbsent(_ context.Context, u *models.User) (*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.store[u.ID]; ok {
		return &existing, false, nil
	}
	m.store[u.ID] = *u
	m.Creates++
	created := *u
	return &created, true, nil
}

func (m *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.store[sub]; ok {
		return &u, nil
	}
	return nil, nil
}

// Len returns the number of stored records.
func (m *MemoryUserRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}
