package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/storage/memstore"
)

type event struct {
	Type    string
	Payload map[string]interface{}
}

type recordingSink struct {
	mu     sync.Mutex
	events []event
	fail   bool
}

func (r *recordingSink) Emit(_ context.Context, eventType string, payload map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{Type: eventType, Payload: payload})
	if r.fail {
		return errors.New("sink offline")
	}
	return nil
}

func (r *recordingSink) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engine struct {
	store        *memstore.Store
	sink         *recordingSink
	clock        *clock
	interactions *InteractionService
	matches      *MatchService
	openings     *OpeningService
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := memstore.New()
	sink := &recordingSink{}
	clk := &clock{now: time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)}
	log := logger.Nop()
	notifier := NewNotifier(sink, log)
	profiles := StoreProfileStates{Profiles: store.Profiles()}
	cfg := models.DefaultEngineConfig()

	e := &engine{
		store:        store,
		sink:         sink,
		clock:        clk,
		interactions: NewInteractionService(store, profiles, notifier, cfg, log),
		matches:      NewMatchService(store, notifier, log),
		openings:     NewOpeningService(store, profiles, notifier, cfg, log),
	}
	e.interactions.SetClock(clk.Now)
	e.matches.SetClock(clk.Now)
	e.openings.SetClock(clk.Now)
	return e
}

// seed stores ready-to-interact profiles for the given users.
func (e *engine) seed(ids ...int64) {
	for _, id := range ids {
		e.store.PutProfile(models.UserProfile{
			UserID:                id,
			Photos:                []string{"photo.jpg"},
			PrimaryPhoto:          "photo.jpg",
			BasicProfileCompleted: true,
		})
	}
}

// active returns the actor's active signals of type t toward target.
func (e *engine) active(t *testing.T, actorID, targetID int64, typ models.SignalType) []*models.Signal {
	t.Helper()
	rows, err := e.store.Signals().ListActiveByActor(context.Background(), actorID, 0)
	require.NoError(t, err)
	var out []*models.Signal
	for _, s := range rows {
		if s.TargetID == targetID && s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
