package photos

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

// MemoryRepository keeps photos in process memory. It backs local runs and
// tests; the mutex makes each insert atomic with respect to readers.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]models.Photo
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]models.Photo)}
}

func (r *MemoryRepository) Insert(ctx context.Context, p *models.Photo) error {
	if err := ctx.Err(); err != nil {
		return common.Unavailable("memory insert", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.PhotoID]; ok {
		return fmt.Errorf("photo %s: %w", p.PhotoID, common.ErrConflict)
	}
	r.byID[p.PhotoID] = *p
	return nil
}

func (r *MemoryRepository) ListPublic(ctx context.Context) ([]*models.Photo, error) {
	return r.list(ctx, func(p *models.Photo) bool { return p.Visibility == models.VisibilityPublic })
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return r.list(ctx, func(p *models.Photo) bool { return p.OwnerID == ownerID })
}

func (r *MemoryRepository) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Unavailable("memory get", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[photoID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryRepository) list(ctx context.Context, keep func(*models.Photo) bool) ([]*models.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Unavailable("memory list", err)
	}

	r.mu.RLock()
	out := make([]*models.Photo, 0, len(r.byID))
	for _, p := range r.byID {
		p := p
		if keep(&p) {
			out = append(out, &p)
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}
