package photos

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

// photoDocument is the stored shape of a photo in the document collection.
type photoDocument struct {
	OwnerID      string    `bson:"UserID"`
	PhotoID      string    `bson:"PhotoID"`
	CreationTime time.Time `bson:"CreationTime"`
	Title        string    `bson:"Title"`
	Description  string    `bson:"Description"`
	Tags         string    `bson:"Tags"`
	URL          string    `bson:"URL"`
	Public       string    `bson:"Public"`
	ExifData     string    `bson:"ExifData"`
}

func toDocument(p *models.Photo) photoDocument {
	public := "no"
	if p.Visibility == models.VisibilityPublic {
		public = "yes"
	}
	return photoDocument{
		OwnerID:      p.OwnerID,
		PhotoID:      p.PhotoID,
		CreationTime: p.CreatedAt.UTC(),
		Title:        p.Title,
		Description:  p.Description,
		Tags:         p.Tags,
		URL:          p.URL,
		Public:       public,
		ExifData:     p.Exif,
	}
}

func (d *photoDocument) toModel() *models.Photo {
	vis := models.VisibilityPrivate
	if d.Public == "yes" {
		vis = models.VisibilityPublic
	}
	return &models.Photo{
		OwnerID:     d.OwnerID,
		PhotoID:     d.PhotoID,
		CreatedAt:   d.CreationTime.UTC(),
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		URL:         d.URL,
		Visibility:  vis,
		Exif:        d.ExifData,
	}
}

// PhotoIndexes are the indexes MongoRepository relies on. The unique index on
// PhotoID is what turns a colliding insert into a duplicate key error.
func PhotoIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "UserID", Value: 1}, {Key: "PhotoID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("owner_photo_unique"),
		},
		{
			Keys:    bson.D{{Key: "PhotoID", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("photo_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "Public", Value: 1}, {Key: "CreationTime", Value: -1}, {Key: "PhotoID", Value: -1}},
			Options: options.Index().SetName("public_created"),
		},
		{
			Keys:    bson.D{{Key: "UserID", Value: 1}, {Key: "CreationTime", Value: -1}, {Key: "PhotoID", Value: -1}},
			Options: options.Index().SetName("owner_created"),
		},
	}
}

var newestFirst = bson.D{{Key: "CreationTime", Value: -1}, {Key: "PhotoID", Value: -1}}

// MongoRepository stores photos as documents in a single collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) Insert(ctx context.Context, p *models.Photo) error {
	if _, err := r.coll.InsertOne(ctx, toDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("photo %s: %w", p.PhotoID, common.ErrConflict)
		}
		return common.Unavailable("mongo insert", err)
	}
	return nil
}

func (r *MongoRepository) ListPublic(ctx context.Context) ([]*models.Photo, error) {
	return r.find(ctx, bson.D{{Key: "Public", Value: "yes"}})
}

func (r *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return r.find(ctx, bson.D{{Key: "UserID", Value: ownerID}})
}

func (r *MongoRepository) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	var doc photoDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "PhotoID", Value: photoID}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, common.Unavailable("mongo find", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.D) ([]*models.Photo, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, common.Unavailable("mongo find", err)
	}
	defer cur.Close(ctx)

	var docs []photoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, common.Unavailable("mongo cursor", err)
	}

	out := make([]*models.Photo, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}
