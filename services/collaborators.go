package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedmatch_server/models"
	"wedmatch_server/storage"
)

// ProfileStates supplies the read-only profile gate input.
type ProfileStates interface {
	Get(ctx context.Context, userID int64) (models.ProfileState, error)
}

// NotificationSink delivers engine events. Delivery is fire-and-forget.
type NotificationSink interface {
	Emit(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// SettingsProvider supplies tunables by key.
type SettingsProvider interface {
	GetInt(key string, def int) int
	GetBool(key string, def bool) bool
}

// CohortSource loads the members of a cohort for the match generator.
type CohortSource interface {
	Members(ctx context.Context, cohortID string) ([]*models.UserProfile, error)
}

// ReportSink archives match generation summaries.
type ReportSink interface {
	StoreRun(ctx context.Context, run *models.GenerationRun) error
}

// Settings keys for the engine tunables.
const (
	SettingMaxScan           = "interaction.max_scan"
	SettingSuperLikeDailyCap = "interaction.super_like_daily_cap"
	SettingDislikeUndoMins   = "interaction.dislike_undo_minutes"
	SettingFreezeDefaultDays = "interaction.freeze_default_days"
	SettingFreezeMinDays     = "interaction.freeze_min_days"
	SettingFreezeMaxDays     = "interaction.freeze_max_days"
)

// ResolveEngineConfig reads the tunables from settings, falling back to the built-in defaults
// when settings is nil or a value is out of range.
func ResolveEngineConfig(settings SettingsProvider) models.EngineConfig {
	cfg := models.DefaultEngineConfig()
	if settings == nil {
		return cfg
	}
	positive := func(key string, def int) int {
		if v := settings.GetInt(key, def); v > 0 {
			return v
		}
		return def
	}
	cfg.MaxScan = positive(SettingMaxScan, cfg.MaxScan)
	if v := settings.GetInt(SettingSuperLikeDailyCap, cfg.SuperLikeDailyCap); v >= 0 {
		cfg.SuperLikeDailyCap = v
	}
	if mins := settings.GetInt(SettingDislikeUndoMins, -1); mins >= 0 {
		cfg.DislikeUndoWindow = time.Duration(mins) * time.Minute
	}
	minDays := positive(SettingFreezeMinDays, cfg.FreezeMinDays)
	maxDays := positive(SettingFreezeMaxDays, cfg.FreezeMaxDays)
	if maxDays >= minDays {
		cfg.FreezeMinDays, cfg.FreezeMaxDays = minDays, maxDays
	}
	def := positive(SettingFreezeDefaultDays, cfg.FreezeDefaultDays)
	cfg.FreezeDefaultDays = cfg.ClampFreezeDays(&def)
	return cfg
}

// StoreProfileStates projects ProfileStore rows into gate input.
type StoreProfileStates struct {
	Profiles storage.ProfileStore
}

func (p StoreProfileStates) Get(ctx context.Context, userID int64) (models.ProfileState, error) {
	profile, err := p.Profiles.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.ProfileState{UserID: userID}, nil
	}
	if err != nil {
		return models.ProfileState{}, fmt.Errorf("load profile %d: %w", userID, err)
	}
	return profile.State(), nil
}

// StoreCohortSource treats every user whose last event equals the cohort id as a member.
type StoreCohortSource struct {
	Profiles storage.ProfileStore
}

func (c StoreCohortSource) Members(ctx context.Context, cohortID string) ([]*models.UserProfile, error) {
	return c.Profiles.ListByLastEvent(ctx, cohortID)
}
