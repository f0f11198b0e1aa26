// Package storage defines the persistence contracts of the match engine. Implementations live
// in the dynamostore, sqlstore and memstore subpackages.
package storage

import (
	"context"
	"errors"

	"wedmatch_server/models"
)

var (
	// ErrNotFound is returned when a keyed lookup finds nothing.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a create violates a uniqueness key.
	ErrDuplicate = errors.New("storage: duplicate key")
)

// SignalStore persists individual interaction records.
type SignalStore interface {
	Create(ctx context.Context, signal *models.Signal) error
	// Update rewrites a previously created signal (activation flag, reason, timestamps).
	Update(ctx context.Context, signal *models.Signal) error
	// ListActiveByActor returns at most limit active outgoing signals of actorID, newest first.
	ListActiveByActor(ctx context.Context, actorID int64, limit int) ([]*models.Signal, error)
	// ListActiveByTarget returns active signals of the given type aimed at targetID, newest first.
	ListActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType, limit int) ([]*models.Signal, error)
	// CountActiveByTarget counts active signals of the given type aimed at targetID.
	CountActiveByTarget(ctx context.Context, targetID int64, signalType models.SignalType) (int64, error)
}

// MatchStore persists Match aggregates.
type MatchStore interface {
	// Create inserts a new match; ErrDuplicate if the (low, high) pair already exists.
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	// GetByPair looks a match up by its normalized pair; ErrNotFound if absent.
	GetByPair(ctx context.Context, low, high int64) (*models.Match, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Match, error)
	ListBySource(ctx context.Context, source string, limit int) ([]*models.Match, error)
	ListByMinScore(ctx context.Context, minScore float64, limit int) ([]*models.Match, error)
}

// OpeningMessageStore persists opening messages.
type OpeningMessageStore interface {
	Create(ctx context.Context, msg *models.OpeningMessage) error
	Update(ctx context.Context, msg *models.OpeningMessage) error
	GetByID(ctx context.Context, id string) (*models.OpeningMessage, error)
	// FindUndeleted returns the undeleted opening message from sender to recipient, or ErrNotFound.
	FindUndeleted(ctx context.Context, senderID, recipientID int64) (*models.OpeningMessage, error)
	ListForRecipient(ctx context.Context, recipientID int64, limit int) ([]*models.OpeningMessage, error)
}

// ProfileStore reads the profile attributes the engine depends on.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	// ListByLastEvent returns every profile whose last event equals cohortID.
	ListByLastEvent(ctx context.Context, cohortID string) ([]*models.UserProfile, error)
}

// Tx is the set of stores visible inside one transaction.
type Tx interface {
	Signals() SignalStore
	Matches() MatchStore
	Openings() OpeningMessageStore
}

// Store is a transactional container of every store. Outside WithTx, the embedded Tx methods
// run each call on its own.
type Store interface {
	Tx
	Profiles() ProfileStore
	// WithTx runs fn inside one transaction; all writes commit together or not at all.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
