package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type signalRepo struct{ db *gorm.DB }

func (r *signalRepo) Create(ctx context.Context, s *models.Signal) error {
	return translate(r.db.WithContext(ctx).Create(toSignalRow(s)).Error, "signal "+s.ID)
}

func (r *signalRepo) Update(ctx context.Context, s *models.Signal) error {
	res := r.db.WithContext(ctx).Model(&signalRow{}).
		Where("id = ?", s.ID).
		Select("*").
		Updates(toSignalRow(s))
	return updated(res, "signal "+s.ID)
}

func (r *signalRepo) ListActiveByActor(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error) {
	var rows []*signalRow
	q := r.db.WithContext(ctx).
		Where("actor_id = ? AND active = ?", actorID, true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list signals")
	}
	return signalModels(rows), nil
}

func (r *signalRepo) ListActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType, limit int) ([]*models.Signal, error) {
	var rows []*signalRow
	q := r.byTarget(ctx, targetID, signalType).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list signals")
	}
	return signalModels(rows), nil
}

func (r *signalRepo) CountActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType) (int64, error) {
	var n int64
	if err := r.byTarget(ctx, targetID, signalType).Count(&n).Error; err != nil {
		return 0, translate(err, "count signals")
	}
	return n, nil
}

func (r *signalRepo) byTarget(ctx context.Context, targetID int64, signalType models.SignalType) *gorm.DB {
	return r.db.WithContext(ctx).Model(&signalRow{}).
		Where("target_id = ? AND type = ? AND active = ?", targetID, string(signalType), true)
}

func signalModels(rows []*signalRow) []*models.Signal {
	out := make([]*models.Signal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out
}

type matchRepo struct{ db *gorm.DB }

func (r *matchRepo) Create(ctx context.Context, m *models.Match) error {
	err := r.db.WithContext(ctx).Create(toMatchRow(m)).Error
	return translate(err, fmt.Sprintf("match pair %d/%d", m.UserLowID, m.UserHighID))
}

func (r *matchRepo) Update(ctx context.Context, m *models.Match) error {
	res := r.db.WithContext(ctx).Model(&matchRow{}).
		Where("id = ?", m.ID).
		Select("*").
		Updates(toMatchRow(m))
	return updated(res, "match "+m.ID)
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*models.Match, error) {
	var row matchRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "match "+id)
	}
	return row.model(), nil
}

func (r *matchRepo) GetByPair(ctx context.Context, low, high int64) (*models.Match, error) {
	var row matchRow
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&row).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("match pair %d/%d", low, high))
	}
	return row.model(), nil
}

func (r *matchRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, "updated_at DESC, id ASC", "user_low_id = ? OR user_high_id = ?", userID, userID)
}

func (r *matchRepo) ListBySource(ctx context.Context, source string, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, "updated_at DESC, id ASC", "source = ?", source)
}

func (r *matchRepo) ListByMinScore(ctx context.Context, minScore float64, limit int) ([]*models.Match, error) {
	return r.list(ctx, limit, "score DESC, updated_at DESC, id ASC", "score >= ?", minScore)
}

func (r *matchRepo) list(ctx context.Context, limit int, order, where string, args ...interface{}) ([]*models.Match, error) {
	var rows []*matchRow
	q := r.db.WithContext(ctx).Where(where, args...).Order(order)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list matches")
	}
	out := make([]*models.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

type openingRepo struct{ db *gorm.DB }

func (r *openingRepo) Create(ctx context.Context, m *models.OpeningMessage) error {
	return translate(r.db.WithContext(ctx).Create(toOpeningRow(m)).Error, "opening message "+m.ID)
}

func (r *openingRepo) Update(ctx context.Context, m *models.OpeningMessage) error {
	res := r.db.WithContext(ctx).Model(&openingRow{}).
		Where("id = ?", m.ID).
		Select("*").
		Updates(toOpeningRow(m))
	return updated(res, "opening message "+m.ID)
}

func (r *openingRepo) GetByID(ctx context.Context, id string) (*models.OpeningMessage, error) {
	var row openingRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "opening message "+id)
	}
	return row.model(), nil
}

func (r *openingRepo) FindUndeleted(ctx context.Context, senderID, recipientID int64) (*models.OpeningMessage, error) {
	var row openingRow
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND recipient_id = ? AND deleted = ?", senderID, recipientID, false).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("opening message %d->%d", senderID, recipientID))
	}
	return row.model(), nil
}

func (r *openingRepo) ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.OpeningMessage, error) {
	var rows []*openingRow
	q := r.db.WithContext(ctx).
		Where("recipient_id = ? AND deleted = ? AND is_opening = ?", recipientID, false, true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list opening messages")
	}
	out := make([]*models.OpeningMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

type profileRepo struct{ db *gorm.DB }

func (r *profileRepo) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var row profileRow
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("profile %d", userID))
	}
	return row.model(), nil
}

func (r *profileRepo) ListByLastEvent(ctx context.Context, cohortID string) ([]*models.UserProfile, error) {
	var rows []*profileRow
	err := r.db.WithContext(ctx).
		Where("last_event_id = ?", cohortID).
		Order("user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "list profiles")
	}
	out := make([]*models.UserProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

var _ storage.SignalStore = (*signalRepo)(nil)
