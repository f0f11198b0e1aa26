package memstore

import (
	"context"
	"fmt"
	"sync"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type signals struct {
	st *state
	mu *sync.Mutex
}

func (r *signals) Create(ctx context.Context, signal *models.Signal) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := r.st.signalIdx[signal.ID]; ok {
		return fmt.Errorf("signal %s: %w", signal.ID, storage.ErrDuplicate)
	}
	r.st.signalIdx[signal.ID] = len(r.st.signals)
	r.st.signals = append(r.st.signals, *signal)
	return nil
}

func (r *signals) Update(ctx context.Context, signal *models.Signal) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	i, ok := r.st.signalIdx[signal.ID]
	if !ok {
		return fmt.Errorf("signal %s: %w", signal.ID, storage.ErrNotFound)
	}
	r.st.signals[i] = *signal
	return nil
}

func (r *signals) ListActiveByActor(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	out := r.filter(func(s *models.Signal) bool { return s.Active && s.ActorID == actorID })
	return truncate(out, limit), nil
}

func (r *signals) ListActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType, limit int) ([]*models.Signal, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	out := r.filter(func(s *models.Signal) bool {
		return s.Active && s.TargetID == targetID && s.Type == signalType
	})
	return truncate(out, limit), nil
}

func (r *signals) CountActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType) (int64, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return 0, err
	}
	var n int64
	for i := range r.st.signals {
		s := &r.st.signals[i]
		if s.Active && s.TargetID == targetID && s.Type == signalType {
			n++
		}
	}
	return n, nil
}

func (r *signals) filter(keep func(*models.Signal) bool) []*models.Signal {
	var out []*models.Signal
	for i := range r.st.signals {
		if keep(&r.st.signals[i]) {
			cp := r.st.signals[i]
			out = append(out, &cp)
		}
	}
	newestFirst(out, func(s *models.Signal) int64 { return s.CreatedAt.UnixNano() })
	return out
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
