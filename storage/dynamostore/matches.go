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

// matches is keyed by pairKey = "low#high", which makes the pair the uniqueness key.
type matches struct {
	db    *Client
	table string
	sess  session
}

func pairKey(low, high int64) string { return fmt.Sprintf("%d#%d", low, high) }

func (r *matches) put(ctx context.Context, m *models.Match, cond string, condErr error) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal match %s: %w", m.ID, err)
	}
	key := pairKey(m.UserLowID, m.UserHighID)
	item["pairKey"] = attrS(key)
	return r.sess.write(ctx, writeOp{table: r.table, key: key, item: item, cond: cond, condErr: condErr})
}

func (r *matches) Create(ctx context.Context, m *models.Match) error {
	return r.put(ctx, m, "attribute_not_exists(pairKey)",
		fmt.Errorf("match pair %d/%d: %w", m.UserLowID, m.UserHighID, storage.ErrDuplicate))
}

func (r *matches) Update(ctx context.Context, m *models.Match) error {
	return r.put(ctx, m, "attribute_exists(pairKey)", fmt.Errorf("match %s: %w", m.ID, storage.ErrNotFound))
}

func (r *matches) GetByPair(ctx context.Context, low, high int64) (*models.Match, error) {
	key := pairKey(low, high)
	if item, ok := r.sess.lookup(r.table, key); ok {
		return decodeMatch(item)
	}
	item, err := r.db.GetItem(ctx, r.table, map[string]types.AttributeValue{"pairKey": attrS(key)})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("match pair %d/%d: %w", low, high, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeMatch(item)
}

// GetByID resolves the pair through the id index, then reads the base item consistently.
func (r *matches) GetByID(ctx context.Context, id string) (*models.Match, error) {
	if item, ok := r.sess.find(r.table, func(it map[string]types.AttributeValue) bool {
		return utils.ExtractString(it, "matchId") == id
	}); ok {
		return decodeMatch(item)
	}
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(models.MatchIDIndex),
		KeyConditionExpression:    aws.String("matchId = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": attrS(id)},
	}, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("match %s: %w", id, storage.ErrNotFound)
	}
	return r.GetByPair(ctx, utils.ExtractInt64(items[0], "userLowId"), utils.ExtractInt64(items[0], "userHighId"))
}

func (r *matches) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, side := range []struct{ index, attr string }{
		{models.MatchUserLowIndex, "userLowId"},
		{models.MatchUserHighIndex, "userHighId"},
	} {
		found, err := r.query(ctx, side.index, side.attr, attrN(userID))
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return storage.SortMatches(out, storage.MatchesByRecent, limit), nil
}

func (r *matches) ListBySource(ctx context.Context, source string, limit int) ([]*models.Match, error) {
	out, err := r.query(ctx, models.MatchSourceIndex, "source", attrS(source))
	if err != nil {
		return nil, err
	}
	return storage.SortMatches(out, storage.MatchesByRecent, limit), nil
}

func (r *matches) ListByMinScore(ctx context.Context, minScore float64, limit int) ([]*models.Match, error) {
	items, err := r.db.ScanAll(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          aws.String("score >= :min"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":min": attrF(minScore)},
	})
	if err != nil {
		return nil, err
	}
	out, err := decodeMatches(items)
	if err != nil {
		return nil, err
	}
	return storage.SortMatches(out, storage.MatchesByScore, limit), nil
}

func (r *matches) query(ctx context.Context, index, attr string, value types.AttributeValue) ([]*models.Match, error) {
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#k = :v"),
		ExpressionAttributeNames:  map[string]string{"#k": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": value},
	}, 0)
	if err != nil {
		return nil, err
	}
	return decodeMatches(items)
}

func decodeMatch(item map[string]types.AttributeValue) (*models.Match, error) {
	var m models.Match
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal match: %w", err)
	}
	return &m, nil
}

func decodeMatches(items []map[string]types.AttributeValue) ([]*models.Match, error) {
	out := make([]*models.Match, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("unmarshal matches: %w", err)
	}
	return out, nil
}
