package photos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
)

type fakeDynamo struct {
	getItem  func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	query    func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	transact func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error)

	gets    []*dynamodb.GetItemInput
	queries []dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	return f.getItem(in)
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, *in)
	return f.query(in)
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return f.transact(in)
}

func TestDynamoInsert_WritesPhotoAndRegistry(t *testing.T) {
	var got *dynamodb.TransactWriteItemsInput
	f := &fakeDynamo{transact: func(in *dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
		got = in
		return &dynamodb.TransactWriteItemsOutput{}, nil
	}}
	repo := NewDynamoRepository(f, "PhotoGallery")

	p := samplePhoto()
	require.NoError(t, repo.Insert(context.Background(), p))

	require.Len(t, got.TransactItems, 2)
	reg := got.TransactItems[0].Put
	photo := got.TransactItems[1].Put

	assert.Equal(t, "photo#"+p.PhotoID, stringAttr(reg.Item, attrOwner))
	assert.Equal(t, p.OwnerID, stringAttr(reg.Item, attrRegOwner))
	assert.Equal(t, "attribute_not_exists(PhotoID)", aws.ToString(reg.ConditionExpression))

	assert.Equal(t, p.OwnerID, stringAttr(photo.Item, attrOwner))
	assert.Equal(t, "001700000000#1700000000000", stringAttr(photo.Item, attrCreatedKey))
	assert.Equal(t, "attribute_not_exists(PhotoID)", aws.ToString(photo.ConditionExpression))
	assert.Equal(t, "PhotoGallery", aws.ToString(photo.TableName))
}

func TestDynamoInsert_ConditionFailureIsConflict(t *testing.T) {
	f := &fakeDynamo{transact: func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
		return nil, &types.TransactionCanceledException{
			Message: aws.String("Transaction cancelled"),
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			},
		}
	}}

	err := NewDynamoRepository(f, "t").Insert(context.Background(), samplePhoto())
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestDynamoInsert_OtherCancellationIsUnavailable(t *testing.T) {
	f := &fakeDynamo{transact: func(*dynamodb.TransactWriteItemsInput) (*dynamodb.TransactWriteItemsOutput, error) {
		return nil, &types.TransactionCanceledException{
			CancellationReasons: []types.CancellationReason{{Code: aws.String("ThrottlingError")}},
		}
	}}

	err := NewDynamoRepository(f, "t").Insert(context.Background(), samplePhoto())
	require.ErrorIs(t, err, common.ErrUnavailable)
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestDynamoListPublic_UsesIndexAndPaginates(t *testing.T) {
	t0 := time.Unix(1700000000, 0).UTC()
	p2 := &models.Photo{OwnerID: "bob", PhotoID: "2", CreatedAt: t0.Add(time.Second), Visibility: models.VisibilityPublic}
	p1 := &models.Photo{OwnerID: "alice", PhotoID: "1", CreatedAt: t0, Visibility: models.VisibilityPublic}

	calls := 0
	f := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		calls++
		if calls == 1 {
			return &dynamodb.QueryOutput{
				Items:            []map[string]types.AttributeValue{photoItem(p2)},
				LastEvaluatedKey: registryKey("2"),
			}, nil
		}
		return &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{photoItem(p1)}}, nil
	}}

	got, err := NewDynamoRepository(f, "t").ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, p2, got[0])
	assert.Equal(t, p1, got[1])

	require.Len(t, f.queries, 2)
	assert.Equal(t, VisibilityCreatedIndex, aws.ToString(f.queries[0].IndexName))
	assert.False(t, aws.ToBool(f.queries[0].ScanIndexForward))
	assert.Nil(t, f.queries[0].ConsistentRead)
	assert.NotEmpty(t, f.queries[1].ExclusiveStartKey)
}

func TestDynamoListByOwner_ConsistentLocalIndex(t *testing.T) {
	f := &fakeDynamo{query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return &dynamodb.QueryOutput{}, nil
	}}

	got, err := NewDynamoRepository(f, "t").ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	q := f.queries[0]
	assert.Equal(t, OwnerCreatedIndex, aws.ToString(q.IndexName))
	assert.True(t, aws.ToBool(q.ConsistentRead))
	assert.Equal(t, "alice", stringAttr(q.ExpressionAttributeValues, ":o"))
}

func TestDynamoListByOwner_QueryError(t *testing.T) {
	f := &fakeDynamo{query: func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
		return nil, errors.New("timeout")
	}}

	_, err := NewDynamoRepository(f, "t").ListByOwner(context.Background(), "alice")
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestDynamoGetByID_FollowsRegistry(t *testing.T) {
	p := samplePhoto()
	f := &fakeDynamo{getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		if stringAttr(in.Key, attrOwner) == "photo#"+p.PhotoID {
			item := registryKey(p.PhotoID)
			item[attrRegOwner] = &types.AttributeValueMemberS{Value: p.OwnerID}
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
		return &dynamodb.GetItemOutput{Item: photoItem(p)}, nil
	}}

	got, err := NewDynamoRepository(f, "t").GetByID(context.Background(), p.PhotoID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	require.Len(t, f.gets, 2)
	assert.Equal(t, p.OwnerID, stringAttr(f.gets[1].Key, attrOwner))
	assert.True(t, aws.ToBool(f.gets[1].ConsistentRead))
}

func TestDynamoGetByID_MissingIsNil(t *testing.T) {
	f := &fakeDynamo{getItem: func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		return &dynamodb.GetItemOutput{}, nil
	}}

	got, err := NewDynamoRepository(f, "t").GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Len(t, f.gets, 1)
}

func TestDynamoTableInput_Indexes(t *testing.T) {
	in := DynamoTableInput("PhotoGallery")
	assert.Equal(t, "PhotoGallery", aws.ToString(in.TableName))
	require.Len(t, in.LocalSecondaryIndexes, 1)
	require.Len(t, in.GlobalSecondaryIndexes, 1)
	assert.Equal(t, OwnerCreatedIndex, aws.ToString(in.LocalSecondaryIndexes[0].IndexName))
	assert.Equal(t, VisibilityCreatedIndex, aws.ToString(in.GlobalSecondaryIndexes[0].IndexName))
	assert.Equal(t, types.BillingModePayPerRequest, in.BillingMode)
}
