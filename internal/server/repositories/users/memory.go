package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/common"
	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a process-local identity store. Contents are lost on
// restart; it is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.Identity
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.Identity)}
}

func (r *MemoryRepository) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[identity.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}

	created := *identity
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now().UTC()
	created.PasswordHash = append([]byte(nil), identity.PasswordHash...)
	r.users[created.Username] = created

	return &created, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &identity, nil
}
