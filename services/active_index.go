package services

import (
	"context"
	"fmt"
	"sort"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// ActiveIndex is a request-local snapshot of one actor's active outgoing signals, grouped by
// type and target. It reflects the store at the moment of the bulk read and never refreshes
// itself: a caller that writes a new signal during the same operation must Put it.
type ActiveIndex struct {
	actorID int64
	byType  map[models.SignalType]map[int64]*models.Signal
}

// LoadActiveIndex builds the index from one read of at most maxScan signals.
func LoadActiveIndex(ctx context.Context, signals storage.SignalStore, actorID int64, maxScan int) (*ActiveIndex, error) {
	rows, err := signals.ListActiveByActor(ctx, actorID, maxScan)
	if err != nil {
		return nil, fmt.Errorf("load active signals of %d: %w", actorID, err)
	}
	return NewActiveIndex(actorID, rows), nil
}

// NewActiveIndex groups rows, which are expected newest first, so the newest row per
// (type, target) wins.
func NewActiveIndex(actorID int64, rows []*models.Signal) *ActiveIndex {
	idx := &ActiveIndex{actorID: actorID, byType: map[models.SignalType]map[int64]*models.Signal{}}
	for _, s := range rows {
		if s.ActorID == actorID {
			idx.Put(s)
		}
	}
	return idx
}

func (i *ActiveIndex) ActorID() int64 { return i.actorID }

func (i *ActiveIndex) Get(t models.SignalType, targetID int64) *models.Signal {
	return i.byType[t][targetID]
}

// Put adds an active signal unless one is already indexed for the same type and target.
func (i *ActiveIndex) Put(s *models.Signal) {
	if s == nil || !s.Active {
		return
	}
	targets, ok := i.byType[s.Type]
	if !ok {
		targets = map[int64]*models.Signal{}
		i.byType[s.Type] = targets
	}
	if _, exists := targets[s.TargetID]; exists {
		return
	}
	targets[s.TargetID] = s
}

// MarkInactive flips the indexed signal to inactive, drops it from the index and returns it
// so the caller can persist the change. Returns nil when nothing was indexed.
func (i *ActiveIndex) MarkInactive(t models.SignalType, targetID int64) *models.Signal {
	s := i.byType[t][targetID]
	if s == nil {
		return nil
	}
	s.Active = false
	delete(i.byType[t], targetID)
	return s
}

// TargetsOfType lists indexed targets of t, newest signal first.
func (i *ActiveIndex) TargetsOfType(t models.SignalType) []int64 {
	rows := i.SignalsOfType(t)
	out := make([]int64, 0, len(rows))
	for _, s := range rows {
		out = append(out, s.TargetID)
	}
	return out
}

// SignalsOfType lists indexed signals of t, newest first.
func (i *ActiveIndex) SignalsOfType(t models.SignalType) []*models.Signal {
	rows := make([]*models.Signal, 0, len(i.byType[t]))
	for _, s := range i.byType[t] {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(a, b int) bool {
		if rows[a].CreatedAt.Equal(rows[b].CreatedAt) {
			return rows[a].TargetID < rows[b].TargetID
		}
		return rows[a].CreatedAt.After(rows[b].CreatedAt)
	})
	return rows
}

// Count returns how many indexed signals of t satisfy keep.
func (i *ActiveIndex) Count(t models.SignalType, keep func(*models.Signal) bool) int {
	n := 0
	for _, s := range i.byType[t] {
		if keep == nil || keep(s) {
			n++
		}
	}
	return n
}
