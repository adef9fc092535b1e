package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jun/babymemories/internal/adapter"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoBackend.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// record is the DynamoDB item layout. The table's partition key is "pk".
type record struct {
	PK        string    `dynamodbav:"pk"`
	Value     string    `dynamodbav:"value"`
	Version   int64     `dynamodbav:"version"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// DynamoBackend stores values in a DynamoDB table, using a conditional write
// on the version attribute for optimistic locking.
type DynamoBackend struct {
	client    DynamoAPI
	tableName string
}

// NewDynamoBackend creates a DynamoBackend for tableName.
func NewDynamoBackend(client DynamoAPI, tableName string) *DynamoBackend {
	return &DynamoBackend{client: client, tableName: tableName}
}

func (d *DynamoBackend) Get(ctx context.Context, key string) (Item, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return Item{}, adapter.ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Item{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return Item{Value: []byte(rec.Value), Version: rec.Version}, nil
}

func (d *DynamoBackend) Put(ctx context.Context, key string, value []byte, expectedVersion int64) (int64, error) {
	rec := record{
		PK:        key,
		Value:     string(value),
		Version:   expectedVersion + 1,
		UpdatedAt: time.Now().UTC(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	}
	if expectedVersion == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(pk)")
	} else {
		input.ConditionExpression = aws.String("version = :expected")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
		}
	}

	if _, err := d.client.PutItem(ctx, input); err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return 0, adapter.ErrPreconditionFailed
		}
		return 0, fmt.Errorf("failed to put item to DynamoDB: %w", err)
	}
	return rec.Version, nil
}
