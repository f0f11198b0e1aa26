package models

// Table names used by the DynamoDB and SQL stores
const (
	SignalsTable         = "Signals"
	MatchesTable         = "Matches"
	OpeningMessagesTable = "OpeningMessages"
	UserProfilesTable    = "Users"
)

// Secondary indexes
const (
	SignalTargetIndex     = "targetId-index"    // PK: targetId, SK: createdAt
	MatchIDIndex          = "matchId-index"     // PK: matchId
	MatchUserLowIndex     = "userLowId-index"   // PK: userLowId
	MatchUserHighIndex    = "userHighId-index"  // PK: userHighId
	MatchSourceIndex      = "source-index"      // PK: source
	OpeningPairIndex      = "pairKey-index"     // PK: sender#recipient
	OpeningRecipientIndex = "recipientId-index" // PK: recipientId, SK: createdAt
	ProfileLastEventIndex = "lastEventId-index" // PK: lastEventId
)

// Signal sources
const (
	SourceUser   = "user"
	SourceAdmin  = "admin"
	SourceSystem = "system"
	SourceAI     = "ai"
)

// Match sources
const (
	MatchSourceWedding = "wedding"
	MatchSourceGlobal  = "global"
	MatchSourceOpening = "opening"
)

// Notification event types
const (
	EventLikeReceived    = "like.received"
	EventSuperLike       = "like.super"
	EventMutualLike      = "match.mutual_like"
	EventMatchCreated    = "match.created"
	EventMatchApproved   = "match.approved"
	EventMatchMutual     = "match.mutual"
	EventMatchClosed     = "match.closed"
	EventUserBlocked     = "user.blocked"
	EventUserReported    = "user.reported"
	EventOpeningReceived = "opening.received"
	EventOpeningAccepted = "opening.accepted"
	EventCohortGenerated = "cohort.generated"
)

// Pagination bounds for list operations
const (
	MinListLimit     = 1
	MaxListLimit     = 500
	DefaultListLimit = 50
)

// ClampLimit keeps a caller-supplied page size inside [MinListLimit, MaxListLimit].
func ClampLimit(limit int) int {
	if limit < MinListLimit {
		return MinListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
