package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type userDocument struct {
	Email        string    `bson:"Email"`
	PasswordHash string    `bson:"PasswordHash"`
	CreatedAt    time.Time `bson:"CreatedAt"`
}

// UserIndexes makes Email unique so concurrent registrations race on the index.
func UserIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{{
		Keys:    bson.D{{Key: "Email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Register(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)

	doc := userDocument{Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.UTC()}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
		}
		return common.Unavailable("mongo insert", err)
	}
	return nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "Email", Value: models.NormalizeEmail(email)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, common.Unavailable("mongo find", err)
	}
	return &models.User{Email: doc.Email, PasswordHash: doc.PasswordHash, CreatedAt: doc.CreatedAt.UTC()}, nil
}
