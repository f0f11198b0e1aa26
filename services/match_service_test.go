package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmatch_server/models"
)

func scorePtr(v float64) *float64 { return &v }

func TestCreateOrGetIsPairNormalized(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	first, created, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 7, UserB: 3, Score: scorePtr(55)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), first.UserLowID)
	assert.Equal(t, int64(7), first.UserHighID)
	assert.Equal(t, models.MatchSourceGlobal, first.Source)
	assert.Equal(t, models.MatchStateNew, first.State())

	cohort := "wedding-42"
	second, created, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 3, UserB: 7, Score: scorePtr(80), MeetingContextID: &cohort})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 80.0, second.Score)
	require.NotNil(t, second.MeetingContextID)
	assert.Equal(t, cohort, *second.MeetingContextID)
	assert.Equal(t, models.MatchSourceGlobal, second.Source)

	third, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 7, UserB: 3})
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, 80.0, third.Score)
	assert.Equal(t, 1, e.sink.count(models.EventMatchCreated))
}

func TestCreateOrGetDefaultsSourceFromContext(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	cohort := "wedding-1"

	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2, MeetingContextID: &cohort})
	require.NoError(t, err)
	assert.Equal(t, models.MatchSourceWedding, m.Source)

	_, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 2, UserB: 2})
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 0, UserB: 2})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrGetConcurrentCallsShareOneMatch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := int64(11), int64(12)
			if i%2 == 1 {
				a, b = b, a
			}
			m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: a, UserB: b})
			if assert.NoError(t, err) {
				ids[i] = m.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, e.sink.count(models.EventMatchCreated))
}

func TestApproveBothSidesThenUnapprove(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)

	m, err = e.matches.Approve(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStateOneSided, m.State())
	assert.False(t, m.MutualApproved)

	m, err = e.matches.Approve(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.True(t, m.MutualApproved)
	assert.True(t, m.ChatOpened)
	assert.Equal(t, models.MatchStateMutual, m.State())
	assert.Equal(t, 1, e.sink.count(models.EventMatchMutual))

	m, err = e.matches.Approve(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, e.sink.count(models.EventMatchMutual))

	m, err = e.matches.Unapprove(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.False(t, m.MutualApproved)
	assert.False(t, m.ChatOpened)
	assert.True(t, m.User1Approved)
	assert.False(t, m.User2Approved)
}

func TestApproveGuards(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)

	_, err = e.matches.Approve(ctx, m.ID, 3)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.matches.Approve(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = e.matches.Approve(ctx, " ", 1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.matches.Block(ctx, m.ID)
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, m.ID, 1)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = e.matches.OpenChat(ctx, m.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBlockedMatchStaysClosedUntilUnblocked(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, m.ID, 1)
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, m.ID, 2)
	require.NoError(t, err)

	m, err = e.matches.Block(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, m.Blocked)
	assert.False(t, m.Active)
	assert.False(t, m.MutualApproved)
	assert.False(t, m.ChatOpened)
	assert.True(t, m.User1Approved)

	m, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 2, UserB: 1})
	require.NoError(t, err)
	assert.False(t, m.Active)

	m, err = e.matches.Unblock(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, m.Blocked)
	assert.False(t, m.Active)

	m, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 2, UserB: 1})
	require.NoError(t, err)
	assert.True(t, m.Active)
}

func TestFreezeAndChatLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)

	m, err = e.matches.Freeze(ctx, m.ID, strPtr(" review "))
	require.NoError(t, err)
	assert.True(t, m.Frozen)
	require.NotNil(t, m.FreezeReason)
	assert.Equal(t, "review", *m.FreezeReason)
	assert.False(t, m.Visible())

	m, err = e.matches.Unfreeze(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, m.Frozen)
	assert.Nil(t, m.FreezeReason)

	_, err = e.matches.IncrementUnread(ctx, m.ID, 1)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.matches.OpenChat(ctx, m.ID)
	require.NoError(t, err)
	_, err = e.matches.IncrementUnread(ctx, m.ID, 1)
	require.NoError(t, err)
	m, err = e.matches.IncrementUnread(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.UnreadCount())

	m, err = e.matches.MarkRead(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, m.UnreadLow)
	assert.Equal(t, 1, m.UnreadHigh)

	m, err = e.matches.CloseChat(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, m.ChatOpened)
}

func TestUnmatchClosesAndNotifiesOtherSide(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, m.ID, 1)
	require.NoError(t, err)

	m, err = e.matches.Unmatch(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.False(t, m.Active)
	assert.False(t, m.User1Approved)
	assert.Equal(t, 1, e.sink.count(models.EventMatchClosed))

	m, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2})
	require.NoError(t, err)
	assert.True(t, m.Active)
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	mutual, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 2, Score: scorePtr(90), Source: models.MatchSourceWedding})
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, mutual.ID, 1)
	require.NoError(t, err)
	_, err = e.matches.Approve(ctx, mutual.ID, 2)
	require.NoError(t, err)

	pending, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 1, UserB: 3, Score: scorePtr(40)})
	require.NoError(t, err)
	blocked, _, err := e.matches.CreateOrGet(ctx, MatchParams{UserA: 4, UserB: 1, Score: scorePtr(70)})
	require.NoError(t, err)
	_, err = e.matches.Block(ctx, blocked.ID)
	require.NoError(t, err)

	all, err := e.matches.ListForUser(ctx, 1, models.MatchFilterAll, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	only, err := e.matches.ListForUser(ctx, 1, models.MatchFilterMutual, 10)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, mutual.ID, only[0].ID)

	only, err = e.matches.ListForUser(ctx, 1, models.MatchFilterPending, 10)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, pending.ID, only[0].ID)

	only, err = e.matches.ListForUser(ctx, 1, models.MatchFilterBlocked, 10)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, blocked.ID, only[0].ID)

	bySource, err := e.matches.ListBySource(ctx, models.MatchSourceWedding, 10)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, mutual.ID, bySource[0].ID)

	byScore, err := e.matches.ListByMinScore(ctx, 60, 10)
	require.NoError(t, err)
	require.Len(t, byScore, 2)
	assert.Equal(t, mutual.ID, byScore[0].ID)
	assert.Equal(t, blocked.ID, byScore[1].ID)

	pair, err := e.matches.GetByPair(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, pair.ID)
	_, err = e.matches.GetByPair(ctx, 3, 4)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.matches.ListBySource(ctx, "", 10)
	assert.ErrorIs(t, err, ErrValidation)
}
