package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wedmatch_server/models"
	"wedmatch_server/storage"
	"wedmatch_server/utils"
)

// openings is keyed by messageId; pairKey = "sender#recipient" feeds the pair index.
type openings struct {
	db    *Client
	table string
	sess  session
}

func (r *openings) put(ctx context.Context, msg *models.OpeningMessage, cond string, condErr error) error {
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("marshal opening message %s: %w", msg.ID, err)
	}
	item["pairKey"] = attrS(pairKey(msg.SenderID, msg.RecipientID))
	return r.sess.write(ctx, writeOp{table: r.table, key: msg.ID, item: item, cond: cond, condErr: condErr})
}

func (r *openings) Create(ctx context.Context, msg *models.OpeningMessage) error {
	return r.put(ctx, msg, "attribute_not_exists(messageId)", fmt.Errorf("opening message %s: %w", msg.ID, storage.ErrDuplicate))
}

func (r *openings) Update(ctx context.Context, msg *models.OpeningMessage) error {
	return r.put(ctx, msg, "attribute_exists(messageId)", fmt.Errorf("opening message %s: %w", msg.ID, storage.ErrNotFound))
}

func (r *openings) GetByID(ctx context.Context, id string) (*models.OpeningMessage, error) {
	item, ok := r.sess.lookup(r.table, id)
	if !ok {
		var err error
		item, err = r.db.GetItem(ctx, r.table, map[string]types.AttributeValue{"messageId": attrS(id)})
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("opening message %s: %w", id, storage.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
	}
	var msg models.OpeningMessage
	if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal opening message: %w", err)
	}
	return &msg, nil
}

func (r *openings) FindUndeleted(ctx context.Context, senderID, recipientID int64) (*models.OpeningMessage, error) {
	key := pairKey(senderID, recipientID)
	if item, ok := r.sess.find(r.table, func(it map[string]types.AttributeValue) bool {
		return utils.ExtractString(it, "pairKey") == key && !utils.ExtractBool(it, "deleted")
	}); ok {
		var msg models.OpeningMessage
		if err := attributevalue.UnmarshalMap(item, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal opening message: %w", err)
		}
		return &msg, nil
	}
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(models.OpeningPairIndex),
		KeyConditionExpression: aws.String("pairKey = :pair"),
		FilterExpression:       aws.String("deleted = :off"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pair": attrS(key),
			":off":  attrB(false),
		},
	}, 1)
	if err != nil {
		return nil, err
	}
	out, err := decodeOpenings(items)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("opening message %d->%d: %w", senderID, recipientID, storage.ErrNotFound)
	}
	return out[0], nil
}

func (r *openings) ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.OpeningMessage, error) {
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(models.OpeningRecipientIndex),
		KeyConditionExpression: aws.String("recipientId = :r"),
		FilterExpression:       aws.String("deleted = :off AND isOpening = :on"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":   attrN(recipientID),
			":off": attrB(false),
			":on":  attrB(true),
		},
		ScanIndexForward: aws.Bool(false),
	}, limit)
	if err != nil {
		return nil, err
	}
	return decodeOpenings(items)
}

func decodeOpenings(items []map[string]types.AttributeValue) ([]*models.OpeningMessage, error) {
	out := make([]*models.OpeningMessage, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("unmarshal opening messages: %w", err)
	}
	return out, nil
}
