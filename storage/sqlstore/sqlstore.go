// Package sqlstore implements storage.Store on gorm, backed by Postgres in production and
// SQLite for local runs and tests.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"wedmatch_server/logger"
	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// Open connects to the named dialect ("postgres" or "sqlite") and migrates the schema.
func Open(dialect, dsn string, baseLog *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == "sqlite" {
		// One connection keeps in-memory databases shared and serialises writers.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return New(db, baseLog), nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&signalRow{}, &matchRow{}, &openingRow{}, &profileRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

var _ storage.Store = (*Store)(nil)

func New(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{db: db, log: baseLog.With("store", "sql")}
}

func (s *Store) Signals() storage.SignalStore         { return &signalRepo{db: s.db} }
func (s *Store) Matches() storage.MatchStore           { return &matchRepo{db: s.db} }
func (s *Store) Openings() storage.OpeningMessageStore { return &openingRepo{db: s.db} }
func (s *Store) Profiles() storage.ProfileStore        { return &profileRepo{db: s.db} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return fn(ctx, &txView{db: txx})
	})
}

// PutProfile upserts a profile row. The engine never writes profiles; this seeds local
// databases and tests.
func (s *Store) PutProfile(ctx context.Context, p models.UserProfile) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toProfileRow(&p)).Error
}

type txView struct{ db *gorm.DB }

func (t *txView) Signals() storage.SignalStore         { return &signalRepo{db: t.db} }
func (t *txView) Matches() storage.MatchStore           { return &matchRepo{db: t.db} }
func (t *txView) Openings() storage.OpeningMessageStore { return &openingRepo{db: t.db} }

// translate maps gorm errors onto the storage sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// updated reports ErrNotFound when a save touched no row.
func updated(res *gorm.DB, what string) error {
	if res.Error != nil {
		return translate(res.Error, what)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
