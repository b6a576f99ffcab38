package users

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

const (
	attrEmail     = "Email"
	attrHash      = "PasswordHash"
	attrCreatedAt = "CreatedAt"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoRepository.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type DynamoRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{client: client, table: table}
}

func DynamoTableInput(table string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrEmail), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrEmail), KeyType: types.KeyTypeHash},
		},
	}
}

// Register is a conditional put; the item is written only if the email key is unused.
func (r *DynamoRepository) Register(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item: map[string]types.AttributeValue{
			attrEmail:     &types.AttributeValueMemberS{Value: u.Email},
			attrHash:      &types.AttributeValueMemberS{Value: u.PasswordHash},
			attrCreatedAt: &types.AttributeValueMemberN{Value: strconv.FormatInt(u.CreatedAt.Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(" + attrEmail + ")"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("user %s: %w", u.Email, common.ErrAlreadyExists)
		}
		return common.Unavailable("dynamodb put", err)
	}
	return nil
}

func (r *DynamoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			attrEmail: &types.AttributeValueMemberS{Value: models.NormalizeEmail(email)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, common.Unavailable("dynamodb get", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	u := &models.User{}
	if v, ok := out.Item[attrEmail].(*types.AttributeValueMemberS); ok {
		u.Email = v.Value
	}
	if v, ok := out.Item[attrHash].(*types.AttributeValueMemberS); ok {
		u.PasswordHash = v.Value
	}
	if v, ok := out.Item[attrCreatedAt].(*types.AttributeValueMemberN); ok {
		if sec, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			u.CreatedAt = time.Unix(sec, 0).UTC()
		}
	}
	return u, nil
}
