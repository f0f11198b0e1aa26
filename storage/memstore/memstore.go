// Package memstore is an in-process implementation of storage.Store used for local runs and
// tests. One mutex serialises every transaction; a failed transaction restores a snapshot.
package memstore

import (
	"context"
	"sort"
	"sync"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type pairKey struct{ low, high int64 }

type state struct {
	signals    []models.Signal
	signalIdx  map[string]int
	matches    map[string]models.Match
	pairs      map[pairKey]string
	openings   map[string]models.OpeningMessage
	openingSeq []string
	profiles   map[int64]models.UserProfile
}

func newState() *state {
	return &state{
		signalIdx: map[string]int{},
		matches:   map[string]models.Match{},
		pairs:     map[pairKey]string{},
		openings:  map[string]models.OpeningMessage{},
		profiles:  map[int64]models.UserProfile{},
	}
}

func (s *state) clone() *state {
	out := newState()
	out.signals = append([]models.Signal(nil), s.signals...)
	for k, v := range s.signalIdx {
		out.signalIdx[k] = v
	}
	for k, v := range s.matches {
		out.matches[k] = v
	}
	for k, v := range s.pairs {
		out.pairs[k] = v
	}
	for k, v := range s.openings {
		out.openings[k] = v
	}
	out.openingSeq = append([]string(nil), s.openingSeq...)
	for k, v := range s.profiles {
		out.profiles[k] = v
	}
	return out
}

// Store keeps every table in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// PutProfile seeds or replaces a profile.
func (s *Store) PutProfile(p models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.profiles[p.UserID] = p
}

func (s *Store) Signals() storage.SignalStore { return &signals{st: s.st, mu: &s.mu} }
func (s *Store) Matches() storage.MatchStore { return &matches{st: s.st, mu: &s.mu} }
func (s *Store) Openings() storage.OpeningMessageStore { return &openings{st: s.st, mu: &s.mu} }
func (s *Store) Profiles() storage.ProfileStore { return &profiles{st: s.st, mu: &s.mu} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(ctx, &tx{st: s.st}); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

// tx runs against the state without locking; the caller of WithTx holds the mutex.
type tx struct{ st *state }

func (t *tx) Signals() storage.SignalStore { return &signals{st: t.st} }
func (t *tx) Matches() storage.MatchStore { return &matches{st: t.st} }
func (t *tx) Openings() storage.OpeningMessageStore { return &openings{st: t.st} }

func lock(mu *sync.Mutex) func() {
	if mu == nil {
		return func() {}
	}
	mu.Lock()
	return mu.Unlock
}

// newestFirst sorts by CreatedAt descending, keeping later insertions first on ties.
func newestFirst[T any](items []T, createdAt func(T) int64) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]) > createdAt(items[j])
	})
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
