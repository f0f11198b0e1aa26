package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"wedmatch_server/logger"
	"wedmatch_server/metrics"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// cancels lists, per new exclusive signal, the signal types it deactivates on the same edge.
var cancels = map[models.SignalType][]models.SignalType{
	models.SignalLike:    {models.SignalDislike, models.SignalFreeze},
	models.SignalDislike: {models.SignalLike, models.SignalFreeze},
	models.SignalFreeze:  {models.SignalLike, models.SignalDislike},
}

var (
	superLikeCancels = []models.SignalType{models.SignalDislike, models.SignalFreeze, models.SignalLike}
	blockCancels     = []models.SignalType{models.SignalLike, models.SignalDislike, models.SignalFreeze, models.SignalBlock}
)

// InteractionService records user-to-user signals and keeps the per-pair relationship state
// consistent: guards, cancellation, rate limits and mutual-like detection.
type InteractionService struct {
	store    storage.Store
	profiles ProfileStates
	notifier *Notifier
	cfg      models.EngineConfig
	log      *logger.Logger
	now      func() time.Time
}

func NewInteractionService(store storage.Store, profiles ProfileStates, notifier *Notifier, cfg models.EngineConfig, baseLog *logger.Logger) *InteractionService {
	return &InteractionService{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		cfg:      cfg,
		log:      baseLog.With("service", "InteractionService"),
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (s *InteractionService) SetClock(now func() time.Time) { s.now = now }

// recordOp describes one signal operation. apply runs inside the transaction with both
// actor and target indexes loaded.
type recordOp struct {
	name         string
	actorID      int64
	targetID     int64
	ictx         models.InteractionContext
	profileGate  bool
	blockGuard   bool
	detectMutual bool
	apply        func(ctx context.Context, tx storage.Tx, actor, target *ActiveIndex, now time.Time) (*models.Signal, string, error)
	after        func(ctx context.Context, res *models.InteractionResult)
}

func (s *InteractionService) record(ctx context.Context, op recordOp) (*models.InteractionResult, error) {
	log := s.log.With("op", op.name, "actor_id", op.actorID, "target_id", op.targetID)
	if err := checkPair(op.actorID, op.targetID); err != nil {
		metrics.SignalRejected("validation")
		return nil, err
	}
	if op.profileGate {
		if err := s.checkProfileGate(ctx, op.actorID, op.targetID, op.ictx); err != nil {
			metrics.SignalRejected(Kind(err))
			return nil, err
		}
	}

	var res models.InteractionResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		now := s.now().UTC()
		actorIdx, err := LoadActiveIndex(ctx, tx.Signals(), op.actorID, s.cfg.MaxScan)
		if err != nil {
			return err
		}
		targetIdx, err := LoadActiveIndex(ctx, tx.Signals(), op.targetID, s.cfg.MaxScan)
		if err != nil {
			return err
		}
		if op.blockGuard {
			if actorIdx.Get(models.SignalBlock, op.targetID) != nil || targetIdx.Get(models.SignalBlock, op.actorID) != nil {
				return conflictf("users %d and %d have blocked each other", op.actorID, op.targetID)
			}
		}
		saved, msg, err := op.apply(ctx, tx, actorIdx, targetIdx, now)
		if err != nil {
			return err
		}
		res.Signal = saved
		res.Message = msg
		if op.detectMutual {
			mutual := targetIdx.Get(models.SignalLike, op.actorID) != nil
			res.Mutual = &mutual
			if mutual {
				res.Message = "It's a match!"
			}
		}
		return nil
	})
	if err != nil {
		if kind := Kind(err); kind != "" {
			metrics.SignalRejected(kind)
			log.Debug("signal rejected", "reason", err)
		} else {
			log.Error("signal operation failed", "error", err)
		}
		return nil, err
	}
	if res.Signal != nil && res.Signal.Active {
		metrics.SignalRecorded(string(res.Signal.Type))
	}
	if res.Mutual != nil && *res.Mutual {
		metrics.MutualLike()
		s.notifier.Emit(ctx, models.EventMutualLike, map[string]interface{}{
			"userIds":  []int64{op.actorID, op.targetID},
			"signalId": res.Signal.ID,
		})
	}
	if op.after != nil {
		op.after(ctx, &res)
	}
	log.Debug("signal recorded", "message", res.Message)
	return &res, nil
}

func checkPair(actorID, targetID int64) error {
	if actorID <= 0 || targetID <= 0 {
		return validationf("actor and target ids are required")
	}
	if actorID == targetID {
		return validationf("user %d cannot interact with themselves", actorID)
	}
	return nil
}

// checkProfileGate requires a primary photo and no pending deletion on the actor. In live
// event mode both sides need only a primary photo.
func (s *InteractionService) checkProfileGate(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) error {
	actor, err := s.profiles.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.HasPrimaryPhoto {
		return statef("user %d has no primary photo", actorID)
	}
	if ictx.LiveEvent {
		target, err := s.profiles.Get(ctx, targetID)
		if err != nil {
			return err
		}
		if !target.HasPrimaryPhoto {
			return statef("user %d has no primary photo", targetID)
		}
		return nil
	}
	if actor.DeletionRequested {
		return statef("user %d has requested account deletion", actorID)
	}
	return nil
}

func (s *InteractionService) newSignal(actorID, targetID int64, t models.SignalType, ictx models.InteractionContext, now time.Time) *models.Signal {
	source := ictx.Source
	if source == "" {
		source = models.SourceUser
	}
	return &models.Signal{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		TargetID:  targetID,
		Type:      t,
		Active:    true,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// deactivate marks the listed types inactive on idx's edge toward targetID and persists them.
func deactivate(ctx context.Context, tx storage.Tx, idx *ActiveIndex, targetID int64, types []models.SignalType, now time.Time) error {
	for _, t := range types {
		prev := idx.MarkInactive(t, targetID)
		if prev == nil {
			continue
		}
		prev.UpdatedAt = now
		if err := tx.Signals().Update(ctx, prev); err != nil {
			return err
		}
	}
	return nil
}

func (s *InteractionService) write(ctx context.Context, tx storage.Tx, idx *ActiveIndex, signal *models.Signal) error {
	if err := tx.Signals().Create(ctx, signal); err != nil {
		return err
	}
	idx.Put(signal)
	return nil
}

// exclusive records LIKE, DISLIKE or FREEZE. Re-issuing an already active signal is a no-op
// that returns the existing row.
func (s *InteractionService) exclusive(ctx context.Context, name string, actorID, targetID int64, t models.SignalType, ictx models.InteractionContext, meta func(now time.Time) models.SignalMeta, msg string) (*models.InteractionResult, error) {
	if !t.Exclusive() {
		return nil, validationf("%s is not an exclusive signal type", t)
	}
	fresh := false
	op := recordOp{
		name:         name,
		actorID:      actorID,
		targetID:     targetID,
		ictx:         ictx,
		profileGate:  true,
		blockGuard:   true,
		detectMutual: t == models.SignalLike,
		apply: func(ctx context.Context, tx storage.Tx, actor, _ *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			if existing := actor.Get(t, targetID); existing != nil {
				return existing, "Already recorded", nil
			}
			if err := deactivate(ctx, tx, actor, targetID, cancels[t], now); err != nil {
				return nil, "", err
			}
			signal := s.newSignal(actorID, targetID, t, ictx, now)
			if meta != nil {
				signal.Meta = meta(now)
			}
			if err := s.write(ctx, tx, actor, signal); err != nil {
				return nil, "", err
			}
			fresh = true
			return signal, msg, nil
		},
	}
	if t == models.SignalLike {
		op.after = func(ctx context.Context, res *models.InteractionResult) {
			if fresh {
				s.notifier.Emit(ctx, models.EventLikeReceived, map[string]interface{}{
					"actorId": actorID, "targetId": targetID, "signalId": res.Signal.ID,
				})
			}
		}
	}
	return s.record(ctx, op)
}

func (s *InteractionService) Like(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.exclusive(ctx, "like", actorID, targetID, models.SignalLike, ictx, nil, "Like recorded")
}

func (s *InteractionService) Dislike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.exclusive(ctx, "dislike", actorID, targetID, models.SignalDislike, ictx, nil, "Dislike recorded")
}

// Freeze hides the target for the requested number of days, clamped to the configured window.
func (s *InteractionService) Freeze(ctx context.Context, actorID, targetID int64, days *int, ictx models.InteractionContext) (*models.InteractionResult, error) {
	n := s.cfg.ClampFreezeDays(days)
	meta := func(now time.Time) models.SignalMeta {
		return models.SignalMeta{Freeze: &models.FreezeMeta{Days: n, Until: now.AddDate(0, 0, n)}}
	}
	return s.exclusive(ctx, "freeze", actorID, targetID, models.SignalFreeze, ictx, meta, "Profile frozen")
}

// SuperLike records a LIKE marked as super-like, replacing any earlier like on the edge.
func (s *InteractionService) SuperLike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.record(ctx, recordOp{
		name:         "super_like",
		actorID:      actorID,
		targetID:     targetID,
		ictx:         ictx,
		profileGate:  true,
		blockGuard:   true,
		detectMutual: true,
		apply: func(ctx context.Context, tx storage.Tx, actor, _ *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			dayStart := startOfDay(now)
			used := actor.Count(models.SignalLike, func(sig *models.Signal) bool {
				return sig.IsSuperLike() && !sig.CreatedAt.Before(dayStart)
			})
			if used >= s.cfg.SuperLikeDailyCap {
				return nil, "", rateLimitf("daily super-like cap of %d reached", s.cfg.SuperLikeDailyCap)
			}
			if err := deactivate(ctx, tx, actor, targetID, superLikeCancels, now); err != nil {
				return nil, "", err
			}
			signal := s.newSignal(actorID, targetID, models.SignalLike, ictx, now)
			signal.Meta = models.SignalMeta{SuperLike: &models.SuperLikeMeta{Day: dayStart.Format("2006-01-02")}}
			if err := s.write(ctx, tx, actor, signal); err != nil {
				return nil, "", err
			}
			return signal, "Super-like sent", nil
		},
		after: func(ctx context.Context, res *models.InteractionResult) {
			s.notifier.Emit(ctx, models.EventSuperLike, map[string]interface{}{
				"actorId": actorID, "targetId": targetID, "signalId": res.Signal.ID,
			})
		},
	})
}

// Block deactivates every exclusive signal in both directions and records an active BLOCK.
func (s *InteractionService) Block(ctx context.Context, actorID, targetID int64, reason *string, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.record(ctx, recordOp{
		name:     "block",
		actorID:  actorID,
		targetID: targetID,
		ictx:     ictx,
		apply: func(ctx context.Context, tx storage.Tx, actor, target *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			if err := deactivate(ctx, tx, actor, targetID, blockCancels, now); err != nil {
				return nil, "", err
			}
			if err := deactivate(ctx, tx, target, actorID, blockCancels[:3], now); err != nil {
				return nil, "", err
			}
			signal := s.newSignal(actorID, targetID, models.SignalBlock, ictx, now)
			signal.Reason = trimmed(reason)
			if err := s.write(ctx, tx, actor, signal); err != nil {
				return nil, "", err
			}
			return signal, "User blocked", nil
		},
		after: func(ctx context.Context, res *models.InteractionResult) {
			s.notifier.Emit(ctx, models.EventUserBlocked, map[string]interface{}{
				"actorId": actorID, "targetId": targetID,
			})
		},
	})
}

// ViewProfile records a VIEW without deduplication and returns the target's view count.
func (s *InteractionService) ViewProfile(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	var views int64
	res, err := s.record(ctx, recordOp{
		name:        "view",
		actorID:     actorID,
		targetID:    targetID,
		ictx:        ictx,
		profileGate: true,
		blockGuard:  true,
		apply: func(ctx context.Context, tx storage.Tx, _, _ *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			// Counted before the write: staged rows are not visible to index queries on every store.
			n, err := tx.Signals().CountActiveByTarget(ctx, targetID, models.SignalView)
			if err != nil {
				return nil, "", err
			}
			signal := s.newSignal(actorID, targetID, models.SignalView, ictx, now)
			if err := tx.Signals().Create(ctx, signal); err != nil {
				return nil, "", err
			}
			views = n + 1
			return signal, "View recorded", nil
		},
	})
	if err != nil {
		return nil, err
	}
	res.ViewCount = &views
	return res, nil
}

// ReportUser records an audit REPORT signal; no separate report entity is created.
func (s *InteractionService) ReportUser(ctx context.Context, actorID, targetID int64, reportType, details string, ictx models.InteractionContext) (*models.InteractionResult, error) {
	reportType = strings.TrimSpace(reportType)
	if reportType == "" {
		return nil, validationf("report type is required")
	}
	return s.record(ctx, recordOp{
		name:     "report",
		actorID:  actorID,
		targetID: targetID,
		ictx:     ictx,
		apply: func(ctx context.Context, tx storage.Tx, _, _ *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			signal := s.newSignal(actorID, targetID, models.SignalReport, ictx, now)
			signal.Meta = models.SignalMeta{Report: &models.ReportMeta{Type: reportType, Details: strings.TrimSpace(details)}}
			if err := tx.Signals().Create(ctx, signal); err != nil {
				return nil, "", err
			}
			return signal, "Report recorded", nil
		},
		after: func(ctx context.Context, res *models.InteractionResult) {
			s.notifier.Emit(ctx, models.EventUserReported, map[string]interface{}{
				"actorId": actorID, "targetId": targetID, "reportType": reportType, "signalId": res.Signal.ID,
			})
		},
	})
}

// reversal deactivates the active signal of type t on the actor's edge. check may reject
// the reversal; audit, when set, is recorded as an inactive trail row.
func (s *InteractionService) reversal(ctx context.Context, name string, actorID, targetID int64, t models.SignalType, ictx models.InteractionContext, check func(sig *models.Signal, now time.Time) error, audit models.SignalType, reason *string, msg string) (*models.InteractionResult, error) {
	return s.record(ctx, recordOp{
		name:     name,
		actorID:  actorID,
		targetID: targetID,
		ictx:     ictx,
		apply: func(ctx context.Context, tx storage.Tx, actor, _ *ActiveIndex, now time.Time) (*models.Signal, string, error) {
			current := actor.Get(t, targetID)
			if current == nil {
				return nil, "", conflictf("no active %s from %d to %d", strings.ToLower(string(t)), actorID, targetID)
			}
			if check != nil {
				if err := check(current, now); err != nil {
					return nil, "", err
				}
			}
			if err := deactivate(ctx, tx, actor, targetID, []models.SignalType{t}, now); err != nil {
				return nil, "", err
			}
			if audit == "" {
				return current, msg, nil
			}
			trail := s.newSignal(actorID, targetID, audit, ictx, now)
			trail.Active = false
			trail.Reason = trimmed(reason)
			if err := tx.Signals().Create(ctx, trail); err != nil {
				return nil, "", err
			}
			return trail, msg, nil
		},
	})
}

func (s *InteractionService) Unblock(ctx context.Context, actorID, targetID int64, reason *string, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.reversal(ctx, "unblock", actorID, targetID, models.SignalBlock, ictx, nil, models.SignalUnblock, reason, "User unblocked")
}

func (s *InteractionService) Unfreeze(ctx context.Context, actorID, targetID int64, reason *string, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.reversal(ctx, "unfreeze", actorID, targetID, models.SignalFreeze, ictx, nil, models.SignalUnfreeze, reason, "Profile unfrozen")
}

// UndoDislike reverses a dislike only within the configured undo window.
func (s *InteractionService) UndoDislike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	window := func(sig *models.Signal, now time.Time) error {
		if now.Sub(sig.CreatedAt) > s.cfg.DislikeUndoWindow {
			return rateLimitf("dislike can only be undone within %s", s.cfg.DislikeUndoWindow)
		}
		return nil
	}
	return s.reversal(ctx, "undo_dislike", actorID, targetID, models.SignalDislike, ictx, window, "", nil, "Dislike undone")
}

func (s *InteractionService) CancelLike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.reversal(ctx, "cancel_like", actorID, targetID, models.SignalLike, ictx, nil, "", nil, "Like cancelled")
}

func (s *InteractionService) CancelSuperLike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	onlySuper := func(sig *models.Signal, _ time.Time) error {
		if !sig.IsSuperLike() {
			return conflictf("like from %d to %d is not a super-like", actorID, targetID)
		}
		return nil
	}
	return s.reversal(ctx, "cancel_super_like", actorID, targetID, models.SignalLike, ictx, onlySuper, "", nil, "Super-like cancelled")
}

func (s *InteractionService) CancelFreeze(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.reversal(ctx, "cancel_freeze", actorID, targetID, models.SignalFreeze, ictx, nil, "", nil, "Freeze cancelled")
}

func (s *InteractionService) CancelDislike(ctx context.Context, actorID, targetID int64, ictx models.InteractionContext) (*models.InteractionResult, error) {
	return s.reversal(ctx, "cancel_dislike", actorID, targetID, models.SignalDislike, ictx, nil, "", nil, "Dislike cancelled")
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
