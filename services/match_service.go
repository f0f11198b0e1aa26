package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"wedmatch_server/logger"
	"wedmatch_server/metrics"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// MatchParams are the inputs of CreateOrGet. Nil pointers mean "not provided".
type MatchParams struct {
	UserA            int64
	UserB            int64
	MeetingContextID *string
	OriginContextID  *string
	Score            *float64
	Source           string
}

// MatchService drives the Match aggregate: creation keyed on the normalized pair, approvals
// and the admin-style overrides.
type MatchService struct {
	store    storage.Store
	notifier *Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewMatchService(store storage.Store, notifier *Notifier, baseLog *logger.Logger) *MatchService {
	return &MatchService{
		store:    store,
		notifier: notifier,
		log:      baseLog.With("service", "MatchService"),
		now:      time.Now,
	}
}

func (s *MatchService) SetClock(now func() time.Time) { s.now = now }

// CreateOrGet returns the pair's match, creating it when absent and merging the inputs into it
// otherwise. created reports whether a new row was inserted.
func (s *MatchService) CreateOrGet(ctx context.Context, p MatchParams) (match *models.Match, created bool, err error) {
	if p.UserA <= 0 || p.UserB <= 0 {
		return nil, false, validationf("both user ids are required")
	}
	if p.UserA == p.UserB {
		return nil, false, validationf("cannot match user %d with themselves", p.UserA)
	}
	run := func() error {
		return s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			match, created, err = s.createOrGetTx(ctx, tx, p)
			return err
		})
	}
	err = run()
	if errors.Is(err, storage.ErrDuplicate) {
		// Another writer inserted the pair between our lookup and insert; merge into its row.
		s.log.Debug("match create raced, merging into existing row", "user_a", p.UserA, "user_b", p.UserB)
		err = run()
	}
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.MatchCreated(match.Source)
		s.notifier.Emit(ctx, models.EventMatchCreated, matchPayload(match))
	}
	return match, created, nil
}

func (s *MatchService) createOrGetTx(ctx context.Context, tx storage.Tx, p MatchParams) (*models.Match, bool, error) {
	low, high := models.NormalizePair(p.UserA, p.UserB)
	now := s.now().UTC()
	existing, err := tx.Matches().GetByPair(ctx, low, high)
	switch {
	case err == nil:
		mergeMatch(existing, p)
		existing.UpdatedAt = now
		if err := tx.Matches().Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, err
	}

	source := strings.TrimSpace(p.Source)
	if source == "" {
		source = models.MatchSourceGlobal
		if p.MeetingContextID != nil {
			source = models.MatchSourceWedding
		}
	}
	m := &models.Match{
		ID:               uuid.NewString(),
		UserLowID:        low,
		UserHighID:       high,
		MeetingContextID: p.MeetingContextID,
		OriginContextID:  p.OriginContextID,
		Source:           source,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if p.Score != nil {
		m.Score = *p.Score
	}
	if err := tx.Matches().Create(ctx, m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// mergeMatch applies CreateOrGet's merge rules: the score is overwritten when given, contexts
// and source only fill gaps, and the match is reactivated unless it is blocked.
func mergeMatch(m *models.Match, p MatchParams) {
	if p.Score != nil {
		m.Score = *p.Score
	}
	if m.OriginContextID == nil && p.OriginContextID != nil {
		m.OriginContextID = p.OriginContextID
	}
	if m.MeetingContextID == nil && p.MeetingContextID != nil {
		m.MeetingContextID = p.MeetingContextID
	}
	if strings.TrimSpace(m.Source) == "" && strings.TrimSpace(p.Source) != "" {
		m.Source = strings.TrimSpace(p.Source)
	}
	if !m.Blocked {
		m.Active = true
	}
}

// mutate loads the match, applies fn and persists it in one transaction.
func (s *MatchService) mutate(ctx context.Context, op, matchID string, fn func(m *models.Match) error) (*models.Match, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, validationf("match id is required")
	}
	var out *models.Match
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		m, err := tx.Matches().GetByID(ctx, matchID)
		if errors.Is(err, storage.ErrNotFound) {
			return conflictf("match %s not found", matchID)
		}
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
		m.UpdatedAt = s.now().UTC()
		if err := tx.Matches().Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		if Kind(err) == "" {
			s.log.Error("match mutation failed", "op", op, "match_id", matchID, "error", err)
		}
		return nil, err
	}
	metrics.MatchTransition(op)
	return out, nil
}

func requireMember(m *models.Match, userID int64) error {
	if !m.Has(userID) {
		return validationf("user %d is not part of match %s", userID, m.ID)
	}
	return nil
}

// Approve sets the caller's approval; when both sides have approved the match becomes mutual,
// the chat opens and both unread counters reset.
func (s *MatchService) Approve(ctx context.Context, matchID string, userID int64) (*models.Match, error) {
	becameMutual := false
	m, err := s.mutate(ctx, "approve", matchID, func(m *models.Match) error {
		if err := requireMember(m, userID); err != nil {
			return err
		}
		if m.Blocked {
			return conflictf("match %s is blocked", m.ID)
		}
		if !m.Active {
			return conflictf("match %s is closed", m.ID)
		}
		if userID == m.UserLowID {
			m.User1Approved = true
		} else {
			m.User2Approved = true
		}
		if m.User1Approved && m.User2Approved && !m.MutualApproved {
			m.MutualApproved = true
			m.ChatOpened = true
			m.UnreadLow, m.UnreadHigh = 0, 0
			becameMutual = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Emit(ctx, models.EventMatchApproved, map[string]interface{}{"matchId": m.ID, "userId": userID, "otherUserId": m.Other(userID)})
	if becameMutual {
		s.notifier.Emit(ctx, models.EventMatchMutual, matchPayload(m))
	}
	return m, nil
}

// Unapprove clears the caller's approval and unconditionally ends the mutual state and chat,
// even while the other side's approval remains.
func (s *MatchService) Unapprove(ctx context.Context, matchID string, userID int64) (*models.Match, error) {
	return s.mutate(ctx, "unapprove", matchID, func(m *models.Match) error {
		if err := requireMember(m, userID); err != nil {
			return err
		}
		if userID == m.UserLowID {
			m.User1Approved = false
		} else {
			m.User2Approved = false
		}
		m.MutualApproved = false
		m.ChatOpened = false
		return nil
	})
}

// Block hides the match: it becomes inactive and loses its mutual state and chat. Approval
// flags are left as they are.
func (s *MatchService) Block(ctx context.Context, matchID string) (*models.Match, error) {
	return s.mutate(ctx, "block", matchID, func(m *models.Match) error {
		m.Blocked = true
		m.Active = false
		m.MutualApproved = false
		m.ChatOpened = false
		return nil
	})
}

// Unblock lifts the block. The match stays closed until CreateOrGet reactivates it.
func (s *MatchService) Unblock(ctx context.Context, matchID string) (*models.Match, error) {
	return s.mutate(ctx, "unblock", matchID, func(m *models.Match) error {
		m.Blocked = false
		return nil
	})
}

func (s *MatchService) Freeze(ctx context.Context, matchID string, reason *string) (*models.Match, error) {
	return s.mutate(ctx, "freeze", matchID, func(m *models.Match) error {
		m.Frozen = true
		m.FreezeReason = trimmed(reason)
		return nil
	})
}

func (s *MatchService) Unfreeze(ctx context.Context, matchID string) (*models.Match, error) {
	return s.mutate(ctx, "unfreeze", matchID, func(m *models.Match) error {
		m.Frozen = false
		m.FreezeReason = nil
		return nil
	})
}

func (s *MatchService) OpenChat(ctx context.Context, matchID string) (*models.Match, error) {
	return s.mutate(ctx, "open_chat", matchID, func(m *models.Match) error {
		if m.Blocked {
			return conflictf("match %s is blocked", m.ID)
		}
		m.ChatOpened = true
		return nil
	})
}

func (s *MatchService) CloseChat(ctx context.Context, matchID string) (*models.Match, error) {
	return s.mutate(ctx, "close_chat", matchID, func(m *models.Match) error {
		m.ChatOpened = false
		return nil
	})
}

// Unmatch closes the match on behalf of one of its members.
func (s *MatchService) Unmatch(ctx context.Context, matchID string, userID int64) (*models.Match, error) {
	m, err := s.mutate(ctx, "unmatch", matchID, func(m *models.Match) error {
		if err := requireMember(m, userID); err != nil {
			return err
		}
		m.User1Approved = false
		m.User2Approved = false
		m.MutualApproved = false
		m.ChatOpened = false
		m.Active = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Emit(ctx, models.EventMatchClosed, map[string]interface{}{"matchId": m.ID, "closedBy": userID, "otherUserId": m.Other(userID)})
	return m, nil
}

// IncrementUnread bumps the recipient's unread counter; called by the chat collaborator.
func (s *MatchService) IncrementUnread(ctx context.Context, matchID string, recipientID int64) (*models.Match, error) {
	return s.mutate(ctx, "increment_unread", matchID, func(m *models.Match) error {
		if err := requireMember(m, recipientID); err != nil {
			return err
		}
		if !m.ChatOpened {
			return conflictf("chat of match %s is not open", m.ID)
		}
		if recipientID == m.UserLowID {
			m.UnreadLow++
		} else {
			m.UnreadHigh++
		}
		return nil
	})
}

// MarkRead resets the reader's unread counter.
func (s *MatchService) MarkRead(ctx context.Context, matchID string, userID int64) (*models.Match, error) {
	return s.mutate(ctx, "mark_read", matchID, func(m *models.Match) error {
		if err := requireMember(m, userID); err != nil {
			return err
		}
		if userID == m.UserLowID {
			m.UnreadLow = 0
		} else {
			m.UnreadHigh = 0
		}
		return nil
	})
}

func (s *MatchService) Get(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, conflictf("match %s not found", matchID)
	}
	return m, err
}

// GetByPair returns the match between two users in either order.
func (s *MatchService) GetByPair(ctx context.Context, userA, userB int64) (*models.Match, error) {
	low, high := models.NormalizePair(userA, userB)
	m, err := s.store.Matches().GetByPair(ctx, low, high)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, conflictf("no match between %d and %d", userA, userB)
	}
	return m, err
}

// ListForUser lists the user's matches passing filter, most recently updated first.
func (s *MatchService) ListForUser(ctx context.Context, userID int64, filter models.MatchStatusFilter, limit int) ([]*models.Match, error) {
	if userID <= 0 {
		return nil, validationf("user id is required")
	}
	limit = models.ClampLimit(limit)
	rows, err := s.store.Matches().ListByUser(ctx, userID, models.MaxListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Match, 0, limit)
	for _, m := range rows {
		if filter.Matches(m) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MatchService) ListBySource(ctx context.Context, source string, limit int) ([]*models.Match, error) {
	if strings.TrimSpace(source) == "" {
		return nil, validationf("source is required")
	}
	return s.store.Matches().ListBySource(ctx, strings.TrimSpace(source), models.ClampLimit(limit))
}

func (s *MatchService) ListByMinScore(ctx context.Context, minScore float64, limit int) ([]*models.Match, error) {
	return s.store.Matches().ListByMinScore(ctx, minScore, models.ClampLimit(limit))
}

func matchPayload(m *models.Match) map[string]interface{} {
	return map[string]interface{}{
		"matchId": m.ID,
		"userIds": []int64{m.UserLowID, m.UserHighID},
		"source":  m.Source,
		"score":   m.Score,
	}
}
