package repomanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/server/awsconf"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/users"
)

// tableWaitTimeout bounds how long Prepare waits for a new table to turn ACTIVE.
const tableWaitTimeout = 2 * time.Minute

// DynamoAPI is the subset of *dynamodb.Client the manager and its
// repositories use.
type DynamoAPI interface {
	photos.DynamoAPI
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var (
	// newDynamoClientFromConfig is a seam for testing dynamodb.NewFromConfig.
	newDynamoClientFromConfig = func(cfg aws.Config, optFns ...func(*dynamodb.Options)) DynamoAPI {
		return dynamodb.NewFromConfig(cfg, optFns...)
	}

	// waitForTable is a seam for testing the TableExists waiter.
	waitForTable = func(ctx context.Context, client DynamoAPI, table string) error {
		w := dynamodb.NewTableExistsWaiter(client)
		return w.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableWaitTimeout)
	}
)

type DynamoOptions struct {
	Region      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	PhotosTable string
	UsersTable  string
}

// DynamoRepositoryManager serves both stores from DynamoDB tables.
type DynamoRepositoryManager struct {
	client      DynamoAPI
	photosTable string
	usersTable  string
}

func NewDynamoRepositoryManager(ctx context.Context, o DynamoOptions) (*DynamoRepositoryManager, error) {
	cfg, err := awsconf.Load(ctx, o.Region, o.AccessKey, o.SecretKey)
	if err != nil {
		return nil, err
	}

	client := newDynamoClientFromConfig(cfg, func(opts *dynamodb.Options) {
		if o.Endpoint != "" {
			opts.BaseEndpoint = aws.String(o.Endpoint)
		}
	})
	return newDynamoRepositoryManager(client, o), nil
}

func newDynamoRepositoryManager(client DynamoAPI, o DynamoOptions) *DynamoRepositoryManager {
	return &DynamoRepositoryManager{client: client, photosTable: o.PhotosTable, usersTable: o.UsersTable}
}

func (m *DynamoRepositoryManager) Backend() string { return config.BackendDynamoDB }

func (m *DynamoRepositoryManager) Photos() photos.Repository {
	return photos.NewDynamoRepository(m.client, m.photosTable)
}

func (m *DynamoRepositoryManager) Users() users.Repository {
	return users.NewDynamoRepository(m.client, m.usersTable)
}

// Prepare creates missing tables and waits until they are ACTIVE.
func (m *DynamoRepositoryManager) Prepare(ctx context.Context) error {
	if err := m.ensureTable(ctx, photos.DynamoTableInput(m.photosTable)); err != nil {
		return err
	}
	return m.ensureTable(ctx, users.DynamoTableInput(m.usersTable))
}

func (m *DynamoRepositoryManager) ensureTable(ctx context.Context, in *dynamodb.CreateTableInput) error {
	name := aws.ToString(in.TableName)

	_, err := m.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: in.TableName})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe %s: %w", name, err)
	}

	if _, err := m.client.CreateTable(ctx, in); err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return fmt.Errorf("create %s: %w", name, err)
		}
	}
	if err := waitForTable(ctx, m.client, name); err != nil {
		return fmt.Errorf("wait %s: %w", name, err)
	}
	return nil
}

func (m *DynamoRepositoryManager) Ping(ctx context.Context) error {
	_, err := m.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(m.photosTable)})
	if err != nil {
		return common.Unavailable("dynamodb ping", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (m *DynamoRepositoryManager) Close(ctx context.Context) error { return nil }
