package memstore

import (
	"context"
	"fmt"
	"sync"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type matches struct {
	st *state
	mu *sync.Mutex
}

func (r *matches) Create(ctx context.Context, match *models.Match) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	key := pairKey{match.UserLowID, match.UserHighID}
	if _, ok := r.st.pairs[key]; ok {
		return fmt.Errorf("match pair %d/%d: %w", key.low, key.high, storage.ErrDuplicate)
	}
	if _, ok := r.st.matches[match.ID]; ok {
		return fmt.Errorf("match %s: %w", match.ID, storage.ErrDuplicate)
	}
	r.st.matches[match.ID] = *match
	r.st.pairs[key] = match.ID
	return nil
}

func (r *matches) Update(ctx context.Context, match *models.Match) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := r.st.matches[match.ID]; !ok {
		return fmt.Errorf("match %s: %w", match.ID, storage.ErrNotFound)
	}
	r.st.matches[match.ID] = *match
	return nil
}

func (r *matches) GetByID(ctx context.Context, id string) (*models.Match, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	m, ok := r.st.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, storage.ErrNotFound)
	}
	return &m, nil
}

func (r *matches) GetByPair(ctx context.Context, low, high int64) (*models.Match, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	id, ok := r.st.pairs[pairKey{low, high}]
	if !ok {
		return nil, fmt.Errorf("match pair %d/%d: %w", low, high, storage.ErrNotFound)
	}
	m := r.st.matches[id]
	return &m, nil
}

func (r *matches) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, func(m *models.Match) bool { return m.Has(userID) }, storage.MatchesByRecent)
}

func (r *matches) ListBySource(ctx context.Context, source string, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, func(m *models.Match) bool { return m.Source == source }, storage.MatchesByRecent)
}

func (r *matches) ListByMinScore(ctx context.Context, minScore float64, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, func(m *models.Match) bool { return m.Score >= minScore }, storage.MatchesByScore)
}

func (r *matches) list(ctx context.Context, limit int, keep func(*models.Match) bool, less func(a, b *models.Match) bool) ([]*models.Match, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var out []*models.Match
	for _, m := range r.st.matches {
		if keep(&m) {
			cp := m
			out = append(out, &cp)
		}
	}
	return storage.SortMatches(out, less, limit), nil
}
