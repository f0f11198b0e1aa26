package dynamostore

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// Fixed-width UTC layout so sort keys order lexicographically.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

// signals is keyed by actorId (hash) and sk = createdAt#id (range).
type signals struct {
	db    *Client
	table string
	sess  session
}

func signalSortKey(s *models.Signal) string {
	return s.CreatedAt.UTC().Format(sortTimeLayout) + "#" + s.ID
}

func (r *signals) put(ctx context.Context, s *models.Signal, cond string, condErr error) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal signal %s: %w", s.ID, err)
	}
	sk := signalSortKey(s)
	item["sk"] = attrS(sk)
	return r.sess.write(ctx, writeOp{
		table:   r.table,
		key:     fmt.Sprintf("%d|%s", s.ActorID, sk),
		item:    item,
		cond:    cond,
		condErr: condErr,
	})
}

func (r *signals) Create(ctx context.Context, s *models.Signal) error {
	return r.put(ctx, s, "attribute_not_exists(sk)", fmt.Errorf("signal %s: %w", s.ID, storage.ErrDuplicate))
}

func (r *signals) Update(ctx context.Context, s *models.Signal) error {
	return r.put(ctx, s, "attribute_exists(sk)", fmt.Errorf("signal %s: %w", s.ID, storage.ErrNotFound))
}

func (r *signals) ListActiveByActor(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("actorId = :actor"),
		FilterExpression:       aws.String("active = :on"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":actor": attrN(actorID),
			":on":    attrB(true),
		},
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(true),
	}, limit)
	if err != nil {
		return nil, err
	}
	return decodeSignals(items)
}

func (r *signals) ListActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType, limit int) ([]*models.Signal, error) {
	items, err := r.db.QueryAll(ctx, r.byTarget(targetID, signalType), limit)
	if err != nil {
		return nil, err
	}
	return decodeSignals(items)
}

func (r *signals) CountActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType) (int64, error) {
	return r.db.Count(ctx, r.byTarget(targetID, signalType))
}

func (r *signals) byTarget(targetID int64, signalType models.SignalType) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		IndexName:                aws.String(models.SignalTargetIndex),
		KeyConditionExpression:   aws.String("targetId = :target"),
		FilterExpression:         aws.String("active = :on AND #type = :type"),
		ExpressionAttributeNames: map[string]string{"#type": "type"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":target": attrN(targetID),
			":on":     attrB(true),
			":type":   attrS(string(signalType)),
		},
		ScanIndexForward: aws.Bool(false),
	}
}

func decodeSignals(items []map[string]types.AttributeValue) ([]*models.Signal, error) {
	out := make([]*models.Signal, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
