package dynamostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type fakeAPI struct {
	puts       []*dynamodb.PutItemInput
	putErr     error
	transacts  []*dynamodb.TransactWriteItemsInput
	transactFn func(*dynamodb.TransactWriteItemsInput) error
	pages      []*dynamodb.QueryOutput
	queries    []*dynamodb.QueryInput
	// count answers Select=COUNT queries.
	count int32
}

func (f *fakeAPI) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	cp := *in
	f.queries = append(f.queries, &cp)
	if in.Select == types.SelectCount {
		return &dynamodb.QueryOutput{Count: f.count}, nil
	}
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeAPI) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{}, nil
}

func (f *fakeAPI) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transacts = append(f.transacts, in)
	if f.transactFn != nil {
		return nil, f.transactFn(in)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func newTestStore(api *fakeAPI) *Store {
	return New(WrapClient(api, logger.Nop()), DefaultTables(), logger.Nop())
}

func testMatch() *models.Match {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &models.Match{ID: "m-1", UserLowID: 10, UserHighID: 20, Source: models.MatchSourceGlobal, Active: true, CreatedAt: now, UpdatedAt: now}
}

func TestWithTxStagesWritesUntilCommit(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, tx.Matches().Create(ctx, testMatch()))
		assert.Empty(t, api.transacts)

		staged, err := tx.Matches().GetByPair(ctx, 10, 20)
		require.NoError(t, err)
		assert.Equal(t, "m-1", staged.ID)

		byID, err := tx.Matches().GetByID(ctx, "m-1")
		require.NoError(t, err)
		byID.User1Approved = true
		return tx.Matches().Update(ctx, byID)
	})
	require.NoError(t, err)

	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 1, "two writes to one item collapse into one put")
	put := items[0].Put
	assert.Equal(t, "attribute_not_exists(pairKey)", aws.ToString(put.ConditionExpression))

	var stored models.Match
	require.NoError(t, attributevalue.UnmarshalMap(put.Item, &stored))
	assert.True(t, stored.User1Approved)
	assert.Empty(t, api.puts)
}

func TestWithTxDiscardsOnError(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)
	boom := errors.New("boom")

	err := store.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, tx.Matches().Create(ctx, testMatch()))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, api.transacts)
}

func TestWithTxMapsConditionFailureToDuplicate(t *testing.T) {
	api := &fakeAPI{transactFn: func(*dynamodb.TransactWriteItemsInput) error {
		return &types.TransactionCanceledException{
			Message: aws.String("cancelled"),
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("None")},
				{Code: aws.String("ConditionalCheckFailed")},
			},
		}
	}}
	store := newTestStore(api)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		sig := &models.Signal{ID: "s-1", ActorID: 10, TargetID: 20, Type: models.SignalLike, Active: true, CreatedAt: time.Now()}
		require.NoError(t, tx.Signals().Create(ctx, sig))
		return tx.Matches().Create(ctx, testMatch())
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestDirectCreateMapsConditionFailure(t *testing.T) {
	api := &fakeAPI{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
	store := newTestStore(api)

	err := store.Matches().Create(context.Background(), testMatch())
	assert.ErrorIs(t, err, storage.ErrDuplicate)
	require.Len(t, api.puts, 1)
	assert.Equal(t, "10#20", api.puts[0].Item["pairKey"].(*types.AttributeValueMemberS).Value)
}

func TestListActiveByActorPagesUntilLimit(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	page := func(ids ...string) *dynamodb.QueryOutput {
		out := &dynamodb.QueryOutput{LastEvaluatedKey: map[string]types.AttributeValue{"sk": attrS("next")}}
		for i, id := range ids {
			item, err := attributevalue.MarshalMap(models.Signal{ID: id, ActorID: 10, TargetID: int64(20 + i), Type: models.SignalLike, Active: true, CreatedAt: base.Add(-time.Duration(len(out.Items)) * time.Minute)})
			require.NoError(t, err)
			out.Items = append(out.Items, item)
		}
		return out
	}
	api := &fakeAPI{pages: []*dynamodb.QueryOutput{page(), page("a", "b"), page("c", "d")}}
	store := newTestStore(api)

	got, err := store.Signals().ListActiveByActor(context.Background(), 10, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	require.Len(t, api.queries, 3)
	assert.False(t, aws.ToBool(api.queries[0].ScanIndexForward))
	assert.Equal(t, "active = :on", aws.ToString(api.queries[0].FilterExpression))
}

func TestSignalSortKeyIsFixedWidth(t *testing.T) {
	a := &models.Signal{ID: "x", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 100, time.UTC)}
	b := &models.Signal{ID: "x", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 1000, time.UTC)}
	assert.Less(t, signalSortKey(a), signalSortKey(b))
	assert.Len(t, signalSortKey(a), len(signalSortKey(b)))
}
