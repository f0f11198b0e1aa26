package models

import "time"

// EngineConfig holds the tunables of the interaction engine. It is resolved once from the
// settings provider and injected at construction.
type EngineConfig struct {
	MaxScan           int           `json:"maxScan" yaml:"max_scan" validate:"min=1"`
	SuperLikeDailyCap int           `json:"superLikeDailyCap" yaml:"super_like_daily_cap" validate:"min=0"`
	DislikeUndoWindow time.Duration `json:"dislikeUndoWindow" yaml:"dislike_undo_window"`
	FreezeDefaultDays int           `json:"freezeDefaultDays" yaml:"freeze_default_days" validate:"min=1"`
	FreezeMinDays     int           `json:"freezeMinDays" yaml:"freeze_min_days" validate:"min=1"`
	FreezeMaxDays     int           `json:"freezeMaxDays" yaml:"freeze_max_days" validate:"gtefield=FreezeMinDays"`
}

// DefaultEngineConfig returns the built-in defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxScan:           2000,
		SuperLikeDailyCap: 5,
		DislikeUndoWindow: 10 * time.Minute,
		FreezeDefaultDays: 14,
		FreezeMinDays:     1,
		FreezeMaxDays:     30,
	}
}

// ClampFreezeDays applies the default and the [min, max] window to a requested freeze length.
func (c EngineConfig) ClampFreezeDays(days *int) int {
	if days == nil {
		return c.FreezeDefaultDays
	}
	d := *days
	if d < c.FreezeMinDays {
		d = c.FreezeMinDays
	}
	if d > c.FreezeMaxDays {
		d = c.FreezeMaxDays
	}
	return d
}
