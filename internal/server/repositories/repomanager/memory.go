package repomanager

import (
	"context"

	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data does not
// survive a restart.
type MemoryRepositoryManager struct {
	photos *photos.MemoryRepository
	users  *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		photos: photos.NewMemoryRepository(),
		users:  users.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Backend() string                   { return config.BackendMemory }
func (m *MemoryRepositoryManager) Photos() photos.Repository         { return m.photos }
func (m *MemoryRepositoryManager) Users() users.Repository           { return m.users }
func (m *MemoryRepositoryManager) Prepare(ctx context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(ctx context.Context) error    { return ctx.Err() }
func (m *MemoryRepositoryManager) Close(ctx context.Context) error   { return nil }
