package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wedmatch_server/logger"
	"wedmatch_server/storage"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client wraps the DynamoDB calls with logging and storage error mapping.
type Client struct {
	api API
	log *logger.Logger
}

// NewClient loads the default AWS config for region and builds a client.
func NewClient(ctx context.Context, region string, log *logger.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return WrapClient(dynamodb.NewFromConfig(cfg), log), nil
}

// WrapClient builds a Client around an existing API implementation.
func WrapClient(api API, log *logger.Logger) *Client {
	return &Client{api: api, log: log.With("component", "dynamodb")}
}

// GetItem returns the item under key, or storage.ErrNotFound.
func (c *Client) GetItem(ctx context.Context, table string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", table, err)
	}
	if out.Item == nil {
		return nil, storage.ErrNotFound
	}
	return out.Item, nil
}

// PutItem writes item under an optional condition. A failed condition is reported as
// onConditionFail.
func (c *Client) PutItem(ctx context.Context, table string, item map[string]types.AttributeValue, condition string, onConditionFail error) error {
	in := &dynamodb.PutItemInput{TableName: aws.String(table), Item: item}
	if condition != "" {
		in.ConditionExpression = aws.String(condition)
	}
	_, err := c.api.PutItem(ctx, in)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return onConditionFail
	}
	if err != nil {
		c.log.Error("put item failed", "table", table, "error", err)
		return fmt.Errorf("failed to put item in table '%s': %w", table, err)
	}
	return nil
}

// QueryAll pages through a query until limit matching items are collected. A filter
// expression is applied after the page limit, so short pages are expected.
func (c *Client) QueryAll(ctx context.Context, in *dynamodb.QueryInput, limit int) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			c.log.Error("query failed", "table", aws.ToString(in.TableName), "index", aws.ToString(in.IndexName), "error", err)
			return nil, fmt.Errorf("failed to query table '%s': %w", aws.ToString(in.TableName), err)
		}
		items = append(items, out.Items...)
		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// ScanAll pages through a filtered table scan.
func (c *Client) ScanAll(ctx context.Context, in *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		out, err := c.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", aws.ToString(in.TableName), err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// TransactWrite commits items atomically. When the transaction is cancelled by a failed
// condition, the error registered for that item in onConditionFail is returned.
func (c *Client) TransactWrite(ctx context.Context, items []types.TransactWriteItem, onConditionFail []error) error {
	if len(items) == 0 {
		return nil
	}
	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return nil
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" && i < len(onConditionFail) {
				return onConditionFail[i]
			}
		}
	}
	c.log.Error("transaction failed", "items", len(items), "error", err)
	return fmt.Errorf("failed to commit transaction: %w", err)
}

// Count pages through a COUNT query and sums the matching items.
func (c *Client) Count(ctx context.Context, in *dynamodb.QueryInput) (int64, error) {
	in.Select = types.SelectCount
	var total int64
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return 0, fmt.Errorf("failed to count items in table '%s': %w", aws.ToString(in.TableName), err)
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}
