package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"wedmatch_server/logger"
	"wedmatch_server/metrics"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

const maxOpeningLength = 1000

// OpeningService gates first messages sent while no match exists. Accepting one creates the
// match directly in the mutual state.
type OpeningService struct {
	store    storage.Store
	profiles ProfileStates
	notifier *Notifier
	cfg      models.EngineConfig
	log      *logger.Logger
	now      func() time.Time
	approves singleflight.Group
}

func NewOpeningService(store storage.Store, profiles ProfileStates, notifier *Notifier, cfg models.EngineConfig, baseLog *logger.Logger) *OpeningService {
	return &OpeningService{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		cfg:      cfg,
		log:      baseLog.With("service", "OpeningService"),
		now:      time.Now,
	}
}

func (s *OpeningService) SetClock(now func() time.Time) { s.now = now }

// SendOpening stores a first message from sender to recipient.
func (s *OpeningService) SendOpening(ctx context.Context, senderID, recipientID int64, content string) (*models.OpeningMessage, error) {
	if err := checkPair(senderID, recipientID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("message content is required")
	}
	if len(content) > maxOpeningLength {
		return nil, validationf("message exceeds %d characters", maxOpeningLength)
	}
	state, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !state.BasicProfileCompleted || state.PhotoCount < 1 {
		return nil, statef("user %d must complete the basic profile and add a photo first", senderID)
	}

	var msg *models.OpeningMessage
	err = s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if blocked, err := blockedEitherWay(ctx, tx, senderID, recipientID, s.cfg.MaxScan); err != nil {
			return err
		} else if blocked {
			return conflictf("users %d and %d have blocked each other", senderID, recipientID)
		}
		low, high := models.NormalizePair(senderID, recipientID)
		if _, err := tx.Matches().GetByPair(ctx, low, high); err == nil {
			return conflictf("a match already exists between %d and %d", senderID, recipientID)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := tx.Openings().FindUndeleted(ctx, senderID, recipientID); err == nil {
			return conflictf("user %d already sent an opening message to %d", senderID, recipientID)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		now := s.now().UTC()
		msg = &models.OpeningMessage{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     content,
			IsOpening:   true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Openings().Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Emit(ctx, models.EventOpeningReceived, map[string]interface{}{
		"messageId": msg.ID, "senderId": senderID, "recipientId": recipientID,
	})
	return msg, nil
}

// Approve accepts an opening message on behalf of its recipient. It is idempotent: approving
// the same message again, or racing another approve, yields the same match.
func (s *OpeningService) Approve(ctx context.Context, messageID string, recipientID int64) (*models.Match, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, validationf("message id is required")
	}
	// Keyed per caller so one caller's recipient check never answers for another. The flight
	// outlives a cancelled caller since coalesced callers wait on the same result.
	key := messageID + "#" + strconv.FormatInt(recipientID, 10)
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.approves.Do(key, func() (interface{}, error) {
		m, created, err := s.approveOnce(flightCtx, messageID, recipientID)
		if errors.Is(err, storage.ErrDuplicate) {
			m, created, err = s.approveOnce(flightCtx, messageID, recipientID)
		}
		if err != nil {
			return nil, err
		}
		if created {
			metrics.MatchCreated(m.Source)
			s.notifier.Emit(flightCtx, models.EventOpeningAccepted, matchPayload(m))
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	// Copy so coalesced callers do not share one pointer.
	m := *v.(*models.Match)
	return &m, nil
}

func (s *OpeningService) approveOnce(ctx context.Context, messageID string, recipientID int64) (*models.Match, bool, error) {
	var (
		match   *models.Match
		created bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		msg, err := s.loadForRecipient(ctx, tx, messageID, recipientID)
		if err != nil {
			return err
		}
		if msg.MatchID != nil {
			match, err = tx.Matches().GetByID(ctx, *msg.MatchID)
			return err
		}
		now := s.now().UTC()
		low, high := models.NormalizePair(msg.SenderID, msg.RecipientID)
		match, err = tx.Matches().GetByPair(ctx, low, high)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			match = &models.Match{
				ID:             uuid.NewString(),
				UserLowID:      low,
				UserHighID:     high,
				Score:          0,
				Source:         models.MatchSourceOpening,
				User1Approved:  true,
				User2Approved:  true,
				MutualApproved: true,
				ChatOpened:     true,
				Active:         true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Matches().Create(ctx, match); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		}
		msg.MatchID = &match.ID
		msg.IsOpening = false
		msg.UpdatedAt = now
		return tx.Openings().Update(ctx, msg)
	})
	if err != nil {
		return nil, false, err
	}
	return match, created, nil
}

// Reject soft-deletes the message. No match is created or touched.
func (s *OpeningService) Reject(ctx context.Context, messageID string, recipientID int64) (*models.OpeningMessage, error) {
	if strings.TrimSpace(messageID) == "" {
		return nil, validationf("message id is required")
	}
	var out *models.OpeningMessage
	err := s.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		msg, err := s.loadForRecipient(ctx, tx, messageID, recipientID)
		if err != nil {
			return err
		}
		if msg.MatchID != nil {
			return conflictf("opening message %s was already accepted", messageID)
		}
		msg.Deleted = true
		msg.UpdatedAt = s.now().UTC()
		if err := tx.Openings().Update(ctx, msg); err != nil {
			return err
		}
		out = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pending lists the undeleted opening messages waiting for the recipient.
func (s *OpeningService) Pending(ctx context.Context, recipientID int64, limit int) ([]*models.OpeningMessage, error) {
	if recipientID <= 0 {
		return nil, validationf("recipient id is required")
	}
	return s.store.Openings().ListForRecipient(ctx, recipientID, models.ClampLimit(limit))
}

func (s *OpeningService) loadForRecipient(ctx context.Context, tx storage.Tx, messageID string, recipientID int64) (*models.OpeningMessage, error) {
	msg, err := tx.Openings().GetByID(ctx, messageID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, conflictf("opening message %s not found", messageID)
	}
	if err != nil {
		return nil, err
	}
	if msg.RecipientID != recipientID {
		return nil, validationf("only the recipient may answer opening message %s", messageID)
	}
	if msg.Deleted {
		return nil, conflictf("opening message %s was rejected", messageID)
	}
	return msg, nil
}

func blockedEitherWay(ctx context.Context, tx storage.Tx, a, b int64, maxScan int) (bool, error) {
	aIdx, err := LoadActiveIndex(ctx, tx.Signals(), a, maxScan)
	if err != nil {
		return false, err
	}
	if aIdx.Get(models.SignalBlock, b) != nil {
		return true, nil
	}
	bIdx, err := LoadActiveIndex(ctx, tx.Signals(), b, maxScan)
	if err != nil {
		return false, err
	}
	return bIdx.Get(models.SignalBlock, a) != nil, nil
}
