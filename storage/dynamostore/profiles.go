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
)

// profiles reads the Users table owned by the profile service.
type profiles struct {
	db    *Client
	table string
}

func (r *profiles) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	item, err := r.db.GetItem(ctx, r.table, map[string]types.AttributeValue{"userId": attrN(userID)})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("profile %d: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var p models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile %d: %w", userID, err)
	}
	return &p, nil
}

func (r *profiles) ListByLastEvent(ctx context.Context, cohortID string) ([]*models.UserProfile, error) {
	items, err := r.db.QueryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(models.ProfileLastEventIndex),
		KeyConditionExpression:    aws.String("lastEventId = :e"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":e": attrS(cohortID)},
	}, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*models.UserProfile, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, fmt.Errorf("unmarshal profiles: %w", err)
	}
	storage.SortProfiles(out)
	return out, nil
}
