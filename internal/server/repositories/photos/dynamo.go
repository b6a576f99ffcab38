package photos

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

// Table layout. Photos live under their owner's partition. Each photo also
// has a registry item under "photo#<id>" that makes the id globally unique
// and serves lookups by id alone. Registry items carry neither Visibility nor
// CreatedSort, so they never appear in the secondary indexes.
const (
	attrOwner      = "UserID"
	attrPhotoID    = "PhotoID"
	attrCreated    = "CreationTime"
	attrCreatedKey = "CreatedSort"
	attrVisibility = "Visibility"
	attrTitle      = "Title"
	attrDesc       = "Description"
	attrTags       = "Tags"
	attrURL        = "URL"
	attrExif       = "ExifData"
	attrRegOwner   = "OwnerID"

	OwnerCreatedIndex      = "OwnerCreatedIndex"
	VisibilityCreatedIndex = "VisibilityCreatedIndex"

	registryPrefix = "photo#"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoRepository.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoRepository stores photos in a range-keyed table. Owner listings and
// id lookups are strongly consistent. The public listing reads a global
// secondary index and is eventually consistent.
type DynamoRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{client: client, table: table}
}

// DynamoTableInput describes the table DynamoRepository expects.
func DynamoTableInput(table string) *dynamodb.CreateTableInput {
	str := func(name string) types.AttributeDefinition {
		return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
	}
	key := func(name string, kt types.KeyType) types.KeySchemaElement {
		return types.KeySchemaElement{AttributeName: aws.String(name), KeyType: kt}
	}
	all := &types.Projection{ProjectionType: types.ProjectionTypeAll}

	return &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			str(attrOwner), str(attrPhotoID), str(attrCreatedKey), str(attrVisibility),
		},
		KeySchema: []types.KeySchemaElement{
			key(attrOwner, types.KeyTypeHash),
			key(attrPhotoID, types.KeyTypeRange),
		},
		LocalSecondaryIndexes: []types.LocalSecondaryIndex{{
			IndexName:  aws.String(OwnerCreatedIndex),
			KeySchema:  []types.KeySchemaElement{key(attrOwner, types.KeyTypeHash), key(attrCreatedKey, types.KeyTypeRange)},
			Projection: all,
		}},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName:  aws.String(VisibilityCreatedIndex),
			KeySchema:  []types.KeySchemaElement{key(attrVisibility, types.KeyTypeHash), key(attrCreatedKey, types.KeyTypeRange)},
			Projection: all,
		}},
	}
}

// createdSortKey orders by second then photo id. Seconds are zero padded so
// the string order matches numeric order.
func createdSortKey(p *models.Photo) string {
	return fmt.Sprintf("%012d#%s", p.CreatedAt.Unix(), p.PhotoID)
}

func registryKey(photoID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwner:   &types.AttributeValueMemberS{Value: registryPrefix + photoID},
		attrPhotoID: &types.AttributeValueMemberS{Value: photoID},
	}
}

func photoItem(p *models.Photo) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwner:      &types.AttributeValueMemberS{Value: p.OwnerID},
		attrPhotoID:    &types.AttributeValueMemberS{Value: p.PhotoID},
		attrCreated:    &types.AttributeValueMemberN{Value: strconv.FormatInt(p.CreatedAt.Unix(), 10)},
		attrCreatedKey: &types.AttributeValueMemberS{Value: createdSortKey(p)},
		attrVisibility: &types.AttributeValueMemberS{Value: string(p.Visibility)},
		attrTitle:      &types.AttributeValueMemberS{Value: p.Title},
		attrDesc:       &types.AttributeValueMemberS{Value: p.Description},
		attrTags:       &types.AttributeValueMemberS{Value: p.Tags},
		attrURL:        &types.AttributeValueMemberS{Value: p.URL},
		attrExif:       &types.AttributeValueMemberS{Value: p.Exif},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func photoFromItem(item map[string]types.AttributeValue) (*models.Photo, error) {
	p := &models.Photo{
		OwnerID:     stringAttr(item, attrOwner),
		PhotoID:     stringAttr(item, attrPhotoID),
		Title:       stringAttr(item, attrTitle),
		Description: stringAttr(item, attrDesc),
		Tags:        stringAttr(item, attrTags),
		URL:         stringAttr(item, attrURL),
		Visibility:  models.Visibility(stringAttr(item, attrVisibility)),
		Exif:        stringAttr(item, attrExif),
	}
	if n, ok := item[attrCreated].(*types.AttributeValueMemberN); ok {
		sec, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("photo %s: bad %s %q: %w", p.PhotoID, attrCreated, n.Value, err)
		}
		p.CreatedAt = time.Unix(sec, 0).UTC()
	}
	return p, nil
}

// Insert writes the photo and its registry item in one transaction. Both
// puts are conditional, so a reused id cancels the whole write.
func (r *DynamoRepository) Insert(ctx context.Context, p *models.Photo) error {
	registry := registryKey(p.PhotoID)
	registry[attrRegOwner] = &types.AttributeValueMemberS{Value: p.OwnerID}

	notExists := aws.String("attribute_not_exists(" + attrPhotoID + ")")
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.table), Item: registry, ConditionExpression: notExists}},
			{Put: &types.Put{TableName: aws.String(r.table), Item: photoItem(p), ConditionExpression: notExists}},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("photo %s: %w", p.PhotoID, common.ErrConflict)
		}
		return common.Unavailable("dynamodb transact", err)
	}
	return nil
}

func isConditionFailure(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

func (r *DynamoRepository) ListPublic(ctx context.Context) ([]*models.Photo, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(VisibilityCreatedIndex),
		KeyConditionExpression: aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{
			"#v": attrVisibility,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: string(models.VisibilityPublic)},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (r *DynamoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Photo, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(OwnerCreatedIndex),
		KeyConditionExpression: aws.String("#o = :o"),
		ExpressionAttributeNames: map[string]string{
			"#o": attrOwner,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(true),
	})
}

func (r *DynamoRepository) GetByID(ctx context.Context, photoID string) (*models.Photo, error) {
	reg, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            registryKey(photoID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, common.Unavailable("dynamodb get", err)
	}
	if len(reg.Item) == 0 {
		return nil, nil
	}

	owner := stringAttr(reg.Item, attrRegOwner)
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrOwner:   &types.AttributeValueMemberS{Value: owner},
			attrPhotoID: &types.AttributeValueMemberS{Value: photoID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, common.Unavailable("dynamodb get", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return photoFromItem(out.Item)
}

// query follows LastEvaluatedKey until the result set is exhausted.
func (r *DynamoRepository) query(ctx context.Context, in *dynamodb.QueryInput) ([]*models.Photo, error) {
	out := make([]*models.Photo, 0)
	for {
		page, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, common.Unavailable("dynamodb query", err)
		}
		for _, item := range page.Items {
			p, err := photoFromItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}
