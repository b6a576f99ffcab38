// Package repomanager owns the storage backend for the process: it opens the
// configured backend, prepares its schema, vends the photo and user
// repositories bound to it, and tears it down.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

type RepositoryManager interface {
	// Backend names the storage technology, e.g. "postgres".
	Backend() string
	Photos() photos.Repository
	Users() users.Repository
	// Prepare creates tables, indexes or runs migrations. It is idempotent.
	Prepare(ctx context.Context) error
	// Ping performs a trivial round trip to the backend.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend selected by cfg.Backend and prepares it.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		m = NewMemoryRepositoryManager()
	case config.BackendPostgres:
		m, err = NewPostgresRepositoryManager(cfg.DatabaseDSN)
	case config.BackendMongo:
		m, err = NewMongoRepositoryManager(ctx, MongoOptions{
			URI:              cfg.MongoURI,
			Database:         cfg.MongoDatabase,
			PhotosCollection: cfg.MongoPhotosCollection,
			UsersCollection:  cfg.MongoUsersCollection,
		})
	case config.BackendDynamoDB:
		m, err = NewDynamoRepositoryManager(ctx, DynamoOptions{
			Region:      cfg.DynamoRegion,
			Endpoint:    cfg.DynamoEndpoint,
			AccessKey:   cfg.AWSAccessKey,
			SecretKey:   cfg.AWSSecretKey,
			PhotosTable: cfg.DynamoPhotosTable,
			UsersTable:  cfg.DynamoUsersTable,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s init error: %w", cfg.Backend, err)
	}

	if err := m.Prepare(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("%s prepare error: %w", cfg.Backend, err)
	}
	return m, nil
}
