package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedmatch_server/models"
)

type fakePublisher struct {
	channel string
	message []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

type recordingSink struct {
	events []string
	err    error
}

func (r *recordingSink) Emit(_ context.Context, eventType string, _ map[string]interface{}) error {
	r.events = append(r.events, eventType)
	return r.err
}

func TestRecipientsAndRooms(t *testing.T) {
	like := map[string]interface{}{"actorId": int64(1), "targetId": int64(2)}
	assert.Equal(t, []int64{2}, Recipients(models.EventLikeReceived, like))
	assert.Equal(t, []string{"user:2"}, Rooms(models.EventLikeReceived, like))

	mutual := map[string]interface{}{"matchId": "m-1", "userIds": []int64{3, 4}}
	assert.Equal(t, []string{"user:3", "user:4", "match:m-1"}, Rooms(models.EventMatchMutual, mutual))

	assert.Equal(t, []string{AdminRoom}, Rooms(models.EventUserReported, map[string]interface{}{"actorId": int64(1)}))
}

func TestRedisSinkPublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewRedisSink(pub, "wedmatch.events")

	err := sink.Emit(context.Background(), models.EventOpeningReceived, map[string]interface{}{
		"messageId": "o-1", "senderId": int64(5), "recipientId": int64(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "wedmatch.events", pub.channel)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.message, &env))
	assert.Equal(t, models.EventOpeningReceived, env.Type)
	assert.Equal(t, []int64{6}, env.Recipients)
	assert.Equal(t, "o-1", env.Payload["messageId"])
}

func TestRedisSinkSurfacesPublishError(t *testing.T) {
	sink := NewRedisSink(&fakePublisher{err: errors.New("connection refused")}, "c")
	err := sink.Emit(context.Background(), models.EventMatchCreated, map[string]interface{}{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	failing := &recordingSink{err: errors.New("down")}

	err := Fanout{failing, ok}.Emit(context.Background(), models.EventMatchMutual, nil)
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, []string{models.EventMatchMutual}, ok.events)
	assert.Equal(t, []string{models.EventMatchMutual}, failing.events)
}
