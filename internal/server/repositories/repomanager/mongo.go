package repomanager

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

// mongoConnect is a seam for testing mongo.Connect.
var mongoConnect = mongo.Connect

type MongoOptions struct {
	URI              string
	Database         string
	PhotosCollection string
	UsersCollection  string
}

// MongoRepositoryManager stores photos and users in two collections of one
// database. Reads go to the primary and writes wait for a majority, so a
// write is visible to every later read.
type MongoRepositoryManager struct {
	client *mongo.Client
	photos *mongo.Collection
	users  *mongo.Collection
}

func NewMongoRepositoryManager(ctx context.Context, o MongoOptions) (*MongoRepositoryManager, error) {
	clientOpts := options.Client().
		ApplyURI(o.URI).
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority())

	client, err := mongoConnect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return newMongoRepositoryManager(client, o), nil
}

func newMongoRepositoryManager(client *mongo.Client, o MongoOptions) *MongoRepositoryManager {
	db := client.Database(o.Database)
	return &MongoRepositoryManager{
		client: client,
		photos: db.Collection(o.PhotosCollection),
		users:  db.Collection(o.UsersCollection),
	}
}

func (m *MongoRepositoryManager) Backend() string { return config.BackendMongo }

func (m *MongoRepositoryManager) Photos() photos.Repository {
	return photos.NewMongoRepository(m.photos)
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return users.NewMongoRepository(m.users)
}

// Prepare creates the unique and listing indexes. Existing indexes with the
// same definition are left alone by the server.
func (m *MongoRepositoryManager) Prepare(ctx context.Context) error {
	if _, err := m.photos.Indexes().CreateMany(ctx, photos.PhotoIndexes()); err != nil {
		return fmt.Errorf("photo indexes: %w", err)
	}
	if _, err := m.users.Indexes().CreateMany(ctx, users.UserIndexes()); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	return nil
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return common.Unavailable("mongo ping", err)
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
