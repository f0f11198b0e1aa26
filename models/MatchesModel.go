package models

import "time"

// MatchState is derived from the approval flags; it is never stored.
type MatchState string

const (
	MatchStateNew      MatchState = "NEW"
	MatchStateOneSided MatchState = "ONE_SIDED"
	MatchStateMutual   MatchState = "MUTUAL"
)

// Match is the durable aggregate for an unordered pair of users. The pair is stored with the
// lower id first and (UserLowID, UserHighID) is the only deduplication key.
type Match struct {
	ID               string    `json:"id" dynamodbav:"matchId"`
	UserLowID        int64     `json:"userLowId" dynamodbav:"userLowId"`
	UserHighID       int64     `json:"userHighId" dynamodbav:"userHighId"`
	MeetingContextID *string   `json:"meetingContextId,omitempty" dynamodbav:"meetingContextId,omitempty"`
	OriginContextID  *string   `json:"originContextId,omitempty" dynamodbav:"originContextId,omitempty"`
	Score            float64   `json:"score" dynamodbav:"score"`
	Source           string    `json:"source" dynamodbav:"source"`
	User1Approved    bool      `json:"user1Approved" dynamodbav:"user1Approved"`
	User2Approved    bool      `json:"user2Approved" dynamodbav:"user2Approved"`
	MutualApproved   bool      `json:"mutualApproved" dynamodbav:"mutualApproved"`
	Active           bool      `json:"active" dynamodbav:"active"`
	Blocked          bool      `json:"blocked" dynamodbav:"blocked"`
	Frozen           bool      `json:"frozen" dynamodbav:"frozen"`
	FreezeReason     *string   `json:"freezeReason,omitempty" dynamodbav:"freezeReason,omitempty"`
	ChatOpened       bool      `json:"chatOpened" dynamodbav:"chatOpened"`
	UnreadLow        int       `json:"unreadLow" dynamodbav:"unreadLow"`
	UnreadHigh       int       `json:"unreadHigh" dynamodbav:"unreadHigh"`
	CreatedAt        time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// NormalizePair orders two user ids so the lower one comes first.
func NormalizePair(a, b int64) (low, high int64) {
	if a <= b {
		return a, b
	}
	return b, a
}

// UnreadCount is the total of both sides' unread counters.
func (m *Match) UnreadCount() int { return m.UnreadLow + m.UnreadHigh }

// Has reports whether userID is one of the two pair members.
func (m *Match) Has(userID int64) bool {
	return userID == m.UserLowID || userID == m.UserHighID
}

// Other returns the counterpart of userID in the pair.
func (m *Match) Other(userID int64) int64 {
	if userID == m.UserLowID {
		return m.UserHighID
	}
	return m.UserLowID
}

// State derives the approval state from the two side flags.
func (m *Match) State() MatchState {
	switch {
	case m.User1Approved && m.User2Approved && m.MutualApproved:
		return MatchStateMutual
	case m.User1Approved || m.User2Approved:
		return MatchStateOneSided
	default:
		return MatchStateNew
	}
}

// Visible reports whether none of the blocked/frozen/closed overlays hide the match.
func (m *Match) Visible() bool {
	return m.Active && !m.Blocked && !m.Frozen
}

// MatchStatusFilter selects matches in list operations.
type MatchStatusFilter string

const (
	MatchFilterAll     MatchStatusFilter = ""
	MatchFilterActive  MatchStatusFilter = "active"
	MatchFilterMutual  MatchStatusFilter = "mutual"
	MatchFilterPending MatchStatusFilter = "pending"
	MatchFilterBlocked MatchStatusFilter = "blocked"
	MatchFilterFrozen  MatchStatusFilter = "frozen"
	MatchFilterClosed  MatchStatusFilter = "closed"
)

// Matches reports whether m passes the filter.
func (f MatchStatusFilter) Matches(m *Match) bool {
	switch f {
	case MatchFilterActive:
		return m.Active && !m.Blocked
	case MatchFilterMutual:
		return m.Active && m.MutualApproved
	case MatchFilterPending:
		return m.Active && !m.Blocked && !m.MutualApproved
	case MatchFilterBlocked:
		return m.Blocked
	case MatchFilterFrozen:
		return m.Frozen
	case MatchFilterClosed:
		return !m.Active
	default:
		return true
	}
}
