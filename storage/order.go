package storage

import (
	"sort"

	"wedmatch_server/models"
)

// MatchesByRecent orders matches by UpdatedAt descending, then by id.
func MatchesByRecent(a, b *models.Match) bool {
	if a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.ID < b.ID
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

// MatchesByScore orders matches by score descending, then by recency.
func MatchesByScore(a, b *models.Match) bool {
	if a.Score == b.Score {
		return MatchesByRecent(a, b)
	}
	return a.Score > b.Score
}

// SortMatches sorts in place with less and truncates to limit when limit > 0.
func SortMatches(items []*models.Match, less func(a, b *models.Match) bool, limit int) []*models.Match {
	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// SortProfiles orders profiles by user id so cohort scans are deterministic.
func SortProfiles(items []*models.UserProfile) {
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
}
