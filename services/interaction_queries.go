package services

import (
	"context"

	"wedmatch_server/models"
)

// LikesGiven lists the actor's active outgoing likes, newest first.
func (s *InteractionService) LikesGiven(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	return s.outgoing(ctx, actorID, models.SignalLike, limit)
}

// FreezesGiven lists the actor's active freezes, newest first.
func (s *InteractionService) FreezesGiven(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	return s.outgoing(ctx, actorID, models.SignalFreeze, limit)
}

// BlocksGiven lists the actor's active blocks, newest first.
func (s *InteractionService) BlocksGiven(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	return s.outgoing(ctx, actorID, models.SignalBlock, limit)
}

// LikesReceived lists active likes aimed at the user, newest first.
func (s *InteractionService) LikesReceived(ctx context.Context, targetID int64, limit int) ([]*models.Signal, error) {
	if targetID <= 0 {
		return nil, validationf("user id is required")
	}
	return s.store.Signals().ListActiveByTarget(ctx, targetID, models.SignalLike, models.ClampLimit(limit))
}

// MutualTargets lists users the actor likes who like the actor back.
func (s *InteractionService) MutualTargets(ctx context.Context, actorID int64, limit int) ([]int64, error) {
	if actorID <= 0 {
		return nil, validationf("user id is required")
	}
	idx, err := LoadActiveIndex(ctx, s.store.Signals(), actorID, s.cfg.MaxScan)
	if err != nil {
		return nil, err
	}
	received, err := s.store.Signals().ListActiveByTarget(ctx, actorID, models.SignalLike, s.cfg.MaxScan)
	if err != nil {
		return nil, err
	}
	likedBy := make(map[int64]struct{}, len(received))
	for _, sig := range received {
		likedBy[sig.ActorID] = struct{}{}
	}
	limit = models.ClampLimit(limit)
	out := []int64{}
	for _, target := range idx.TargetsOfType(models.SignalLike) {
		if _, ok := likedBy[target]; ok {
			out = append(out, target)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ViewCount counts active VIEW signals aimed at the user.
func (s *InteractionService) ViewCount(ctx context.Context, targetID int64) (int64, error) {
	if targetID <= 0 {
		return 0, validationf("user id is required")
	}
	return s.store.Signals().CountActiveByTarget(ctx, targetID, models.SignalView)
}

func (s *InteractionService) outgoing(ctx context.Context, actorID int64, t models.SignalType, limit int) ([]*models.Signal, error) {
	if actorID <= 0 {
		return nil, validationf("user id is required")
	}
	idx, err := LoadActiveIndex(ctx, s.store.Signals(), actorID, s.cfg.MaxScan)
	if err != nil {
		return nil, err
	}
	rows := idx.SignalsOfType(t)
	if limit = models.ClampLimit(limit); len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
