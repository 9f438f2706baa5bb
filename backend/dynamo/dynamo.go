// Package dynamo provides a workspace backend stored in DynamoDB.
//
// Each entry is one item keyed by a workspace partition key and the entry
// key as sort key, so a single table serves many workspaces.
//
// Table schema:
//   - Partition key: workspace (string)
//   - Sort key: entry_key (string)
//   - Attribute: content (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name workfs \
//	  --attribute-definitions AttributeName=workspace,AttributeType=S AttributeName=entry_key,AttributeType=S \
//	  --key-schema AttributeName=workspace,KeyType=HASH AttributeName=entry_key,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/workfs/backend"
)

// Client is the subset of the DynamoDB client used by this backend.
// It is satisfied by *dynamodb.Client and by test doubles.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Backend implements backend.Backend on a DynamoDB table.
type Backend struct {
	client    Client
	tableName string
	workspace string
}

// New creates a DynamoDB backend. workspace is the partition-key value that
// isolates this workspace's entries within the shared table.
func New(client Client, tableName, workspace string) *Backend {
	return &Backend{
		client:    client,
		tableName: tableName,
		workspace: workspace,
	}
}

// NewFromConfig creates a DynamoDB backend using the default AWS
// configuration chain.
func NewFromConfig(ctx context.Context, tableName, workspace string, optFns ...func(*awsconfig.LoadOptions) error) (*Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, err
	}
	return New(dynamodb.NewFromConfig(cfg), tableName, workspace), nil
}

func (b *Backend) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"workspace": &types.AttributeValueMemberS{Value: b.workspace},
		"entry_key": &types.AttributeValueMemberS{Value: key},
	}
}

// List returns all stored keys in lexicographic order.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	var keys []string
	var startKey map[string]types.AttributeValue

	for {
		resp, err := b.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(b.tableName),
			KeyConditionExpression: aws.String("workspace = :ws"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ws": &types.AttributeValueMemberS{Value: b.workspace},
			},
			ProjectionExpression: aws.String("entry_key"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			attr, ok := item["entry_key"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, errors.New("dynamo: invalid entry_key attribute")
			}
			keys = append(keys, attr.Value)
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	sort.Strings(keys)
	return keys, nil
}

// Read returns the content stored under key.
func (b *Backend) Read(ctx context.Context, key string) (string, error) {
	resp, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key:       b.itemKey(key),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Item) == 0 {
		return "", backend.ErrNotFound
	}

	attr, ok := resp.Item["content"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("dynamo: invalid content attribute")
	}
	return attr.Value, nil
}

// Write stores content under key, replacing any previous value.
func (b *Backend) Write(ctx context.Context, key, content string) error {
	item := b.itemKey(key)
	item["content"] = &types.AttributeValueMemberS{Value: content}

	_, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      item,
	})
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key:       b.itemKey(key),
	})
	return err
}

// Clear removes every key in this workspace's partition.
func (b *Backend) Clear(ctx context.Context) error {
	keys, err := b.List(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := b.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
