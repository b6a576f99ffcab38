package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]models.User)}
}

func (r *MemoryRepository) Register(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return common.Unavailable("memory register", err)
	}
	u.Email = models.NormalizeEmail(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
	}
	r.byEmail[u.Email] = *u
	return nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Unavailable("memory find", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
