// Package photos stores photo records. Every backend enforces photo_id
// uniqueness itself and reports a duplicate as common.ErrConflict; listings
// are newest first with ties broken by descending photo id.
package photos

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type Repository interface {
	// Insert stores p. It fails with common.ErrConflict when p.PhotoID exists.
	Insert(ctx context.Context, p *models.Photo) error
	ListPublic(ctx context.Context) ([]*models.Photo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error)
	// GetByID returns nil, nil when no photo has that id.
	GetByID(ctx context.Context, photoID string) (*models.Photo, error)
}

func sortNewestFirst(ps []*models.Photo) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Before(ps[j]) })
}
