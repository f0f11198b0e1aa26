package memstore

import (
	"context"
	"fmt"
	"sync"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

type openings struct {
	st *state
	mu *sync.Mutex
}

func (r *openings) Create(ctx context.Context, msg *models.OpeningMessage) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := r.st.openings[msg.ID]; ok {
		return fmt.Errorf("opening message %s: %w", msg.ID, storage.ErrDuplicate)
	}
	r.st.openings[msg.ID] = *msg
	r.st.openingSeq = append(r.st.openingSeq, msg.ID)
	return nil
}

func (r *openings) Update(ctx context.Context, msg *models.OpeningMessage) error {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := r.st.openings[msg.ID]; !ok {
		return fmt.Errorf("opening message %s: %w", msg.ID, storage.ErrNotFound)
	}
	r.st.openings[msg.ID] = *msg
	return nil
}

func (r *openings) GetByID(ctx context.Context, id string) (*models.OpeningMessage, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	m, ok := r.st.openings[id]
	if !ok {
		return nil, fmt.Errorf("opening message %s: %w", id, storage.ErrNotFound)
	}
	return &m, nil
}

func (r *openings) FindUndeleted(ctx context.Context, senderID, recipientID int64) (*models.OpeningMessage, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	for _, id := range r.st.openingSeq {
		m := r.st.openings[id]
		if m.SenderID == senderID && m.RecipientID == recipientID && !m.Deleted {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("opening message %d->%d: %w", senderID, recipientID, storage.ErrNotFound)
}

func (r *openings) ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.OpeningMessage, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var out []*models.OpeningMessage
	for i := len(r.st.openingSeq) - 1; i >= 0; i-- {
		m := r.st.openings[r.st.openingSeq[i]]
		if m.RecipientID == recipientID && !m.Deleted && m.IsOpening {
			out = append(out, &m)
		}
	}
	return truncate(out, limit), nil
}

type profiles struct {
	st *state
	mu *sync.Mutex
}

func (r *profiles) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	p, ok := r.st.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", userID, storage.ErrNotFound)
	}
	return &p, nil
}

func (r *profiles) ListByLastEvent(ctx context.Context, cohortID string) ([]*models.UserProfile, error) {
	defer lock(r.mu)()
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var out []*models.UserProfile
	for _, p := range r.st.profiles {
		if p.LastEventID == cohortID {
			cp := p
			out = append(out, &cp)
		}
	}
	storage.SortProfiles(out)
	return out, nil
}
