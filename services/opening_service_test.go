package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

func TestSendOpeningGuards(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2, 3)
	e.store.PutProfile(models.UserProfile{UserID: 4, Photos: []string{"a.jpg"}})

	_, err := e.openings.SendOpening(ctx, 1, 1, "hi")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.openings.SendOpening(ctx, 1, 2, "   ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.openings.SendOpening(ctx, 1, 2, strings.Repeat("x", 1001))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.openings.SendOpening(ctx, 4, 2, "hi")
	assert.ErrorIs(t, err, ErrState)
	_, err = e.openings.SendOpening(ctx, 5, 2, "hi")
	assert.ErrorIs(t, err, ErrState)

	msg, err := e.openings.SendOpening(ctx, 1, 2, " hello there ")
	require.NoError(t, err)
	assert.Equal(t, "hello there", msg.Content)
	assert.True(t, msg.IsOpening)
	assert.Equal(t, 1, e.sink.count(models.EventOpeningReceived))

	_, err = e.openings.SendOpening(ctx, 1, 2, "again")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = e.interactions.Block(ctx, 3, 1, nil, noCtx)
	require.NoError(t, err)
	_, err = e.openings.SendOpening(ctx, 1, 3, "hi")
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = e.matches.CreateOrGet(ctx, MatchParams{UserA: 2, UserB: 3})
	require.NoError(t, err)
	_, err = e.openings.SendOpening(ctx, 2, 3, "hi")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApproveOpeningCreatesMutualMatch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2)

	msg, err := e.openings.SendOpening(ctx, 2, 1, "hi")
	require.NoError(t, err)

	_, err = e.openings.Approve(ctx, msg.ID, 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.openings.Approve(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrConflict)

	m, err := e.openings.Approve(ctx, msg.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.MatchSourceOpening, m.Source)
	assert.Equal(t, int64(1), m.UserLowID)
	assert.Equal(t, int64(2), m.UserHighID)
	assert.Zero(t, m.Score)
	assert.True(t, m.MutualApproved)
	assert.True(t, m.ChatOpened)
	assert.True(t, m.Active)

	again, err := e.openings.Approve(ctx, msg.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, m.ID, again.ID)
	assert.Equal(t, 1, e.sink.count(models.EventOpeningAccepted))

	stored, err := e.store.Openings().GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.MatchID)
	assert.Equal(t, m.ID, *stored.MatchID)
	assert.False(t, stored.IsOpening)

	_, err = e.openings.Reject(ctx, msg.ID, 1)
	assert.ErrorIs(t, err, ErrConflict)

	pending, err := e.openings.Pending(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConcurrentApproveYieldsOneMatch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2)

	msg, err := e.openings.SendOpening(ctx, 1, 2, "hi")
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := e.openings.Approve(ctx, msg.ID, 2)
			if assert.NoError(t, err) {
				ids[i] = m.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, err := e.matches.ListForUser(ctx, 1, models.MatchFilterAll, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1, e.sink.count(models.EventOpeningAccepted))
}

func TestApproveOpeningReusesExistingMatch(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2, 3)

	first, err := e.openings.SendOpening(ctx, 1, 3, "hi")
	require.NoError(t, err)
	second, err := e.openings.SendOpening(ctx, 3, 1, "hey")
	require.NoError(t, err)

	m1, err := e.openings.Approve(ctx, first.ID, 3)
	require.NoError(t, err)
	m2, err := e.openings.Approve(ctx, second.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
}

func TestRejectAndPending(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2, 3)

	fromOne, err := e.openings.SendOpening(ctx, 1, 3, "hi")
	require.NoError(t, err)
	e.clock.Advance(1)
	fromTwo, err := e.openings.SendOpening(ctx, 2, 3, "hello")
	require.NoError(t, err)

	pending, err := e.openings.Pending(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, fromTwo.ID, pending[0].ID)

	_, err = e.openings.Reject(ctx, fromOne.ID, 2)
	assert.ErrorIs(t, err, ErrValidation)
	rejected, err := e.openings.Reject(ctx, fromOne.ID, 3)
	require.NoError(t, err)
	assert.True(t, rejected.Deleted)

	pending, err = e.openings.Pending(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fromTwo.ID, pending[0].ID)

	_, err = e.openings.Approve(ctx, fromOne.ID, 3)
	assert.ErrorIs(t, err, ErrConflict)
	_, err = e.matches.GetByPair(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrConflict)

	// A rejected opening no longer blocks a new one.
	_, err = e.openings.SendOpening(ctx, 1, 3, "second try")
	assert.NoError(t, err)

	_, err = e.openings.Pending(ctx, 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

// gatedStore holds the first transaction opened after arming until release is closed.
type gatedStore struct {
	storage.Store
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if g.armed.Load() {
		hold := false
		g.once.Do(func() { hold = true })
		if hold {
			close(g.entered)
			<-g.release
		}
	}
	return g.Store.WithTx(ctx, fn)
}

func TestApproveByOtherUserDoesNotJoinRecipientApproval(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.seed(1, 2, 3)

	msg, err := e.openings.SendOpening(ctx, 1, 2, "hi")
	require.NoError(t, err)

	gated := &gatedStore{Store: e.store, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewOpeningService(gated, StoreProfileStates{Profiles: e.store.Profiles()}, NewNotifier(e.sink, logger.Nop()), models.DefaultEngineConfig(), logger.Nop())
	gated.armed.Store(true)

	type result struct {
		match *models.Match
		err   error
	}
	recipient := make(chan result, 1)
	go func() {
		m, err := svc.Approve(ctx, msg.ID, 2)
		recipient <- result{m, err}
	}()
	<-gated.entered

	other := make(chan error, 1)
	go func() {
		_, err := svc.Approve(ctx, msg.ID, 3)
		other <- err
	}()
	select {
	case err := <-other:
		assert.ErrorIs(t, err, ErrValidation)
	case <-time.After(2 * time.Second):
		close(gated.release)
		t.Fatal("approval by another user waited on the recipient's approval")
	}

	close(gated.release)
	res := <-recipient
	require.NoError(t, res.err)
	assert.True(t, res.match.MutualApproved)
	assert.Equal(t, models.MatchSourceOpening, res.match.Source)
	assert.Equal(t, 1, e.sink.count(models.EventOpeningAccepted))
}

func TestApproveCompletesWhenCallerIsCancelled(t *testing.T) {
	e := newEngine(t)
	e.seed(1, 2)

	msg, err := e.openings.SendOpening(context.Background(), 1, 2, "hi")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	m, err := e.openings.Approve(cancelled, msg.ID, 2)
	require.NoError(t, err)
	assert.True(t, m.ChatOpened)

	stored, err := e.store.Openings().GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.MatchID)
	assert.Equal(t, m.ID, *stored.MatchID)
}
