package models

import "time"

// SignalType is the kind of interaction recorded from an actor toward a target.
type SignalType string

const (
	SignalLike     SignalType = "LIKE"
	SignalDislike  SignalType = "DISLIKE"
	SignalFreeze   SignalType = "FREEZE"
	SignalUnfreeze SignalType = "UNFREEZE"
	SignalBlock    SignalType = "BLOCK"
	SignalUnblock  SignalType = "UNBLOCK"
	SignalView     SignalType = "VIEW"
	SignalReport   SignalType = "REPORT"
	SignalUnknown  SignalType = "UNKNOWN"
)

// ParseSignalType maps free-form input to a SignalType; unrecognised values map to SignalUnknown.
func ParseSignalType(raw string) SignalType {
	switch t := SignalType(raw); t {
	case SignalLike, SignalDislike, SignalFreeze, SignalUnfreeze, SignalBlock,
		SignalUnblock, SignalView, SignalReport:
		return t
	default:
		return SignalUnknown
	}
}

// Exclusive reports whether the type belongs to the LIKE/DISLIKE/FREEZE category,
// of which at most one may be active per ordered pair.
func (t SignalType) Exclusive() bool {
	return t == SignalLike || t == SignalDislike || t == SignalFreeze
}

// SuperLikeMeta marks a LIKE as a super-like.
type SuperLikeMeta struct {
	Day string `json:"day" dynamodbav:"day"` // UTC calendar day, 2006-01-02
}

// FreezeMeta carries the requested freeze window.
type FreezeMeta struct {
	Days  int       `json:"days" dynamodbav:"days"`
	Until time.Time `json:"until" dynamodbav:"until"`
}

// ReportMeta carries the audit payload of a REPORT signal.
type ReportMeta struct {
	Type    string `json:"type" dynamodbav:"type"`
	Details string `json:"details,omitempty" dynamodbav:"details,omitempty"`
}

// SignalMeta is the per-kind optional payload of a signal. At most one member is set.
type SignalMeta struct {
	SuperLike *SuperLikeMeta `json:"superLike,omitempty" dynamodbav:"superLike,omitempty"`
	Freeze    *FreezeMeta    `json:"freeze,omitempty" dynamodbav:"freeze,omitempty"`
	Report    *ReportMeta    `json:"report,omitempty" dynamodbav:"report,omitempty"`
}

// Signal is one recorded action from ActorID toward TargetID.
type Signal struct {
	ID        string     `json:"id" dynamodbav:"id"`
	ActorID   int64      `json:"actorId" dynamodbav:"actorId"`
	TargetID  int64      `json:"targetId" dynamodbav:"targetId"`
	Type      SignalType `json:"type" dynamodbav:"type"`
	Active    bool       `json:"active" dynamodbav:"active"`
	Reason    *string    `json:"reason,omitempty" dynamodbav:"reason,omitempty"`
	Meta      SignalMeta `json:"metadata" dynamodbav:"metadata"`
	Source    string     `json:"source" dynamodbav:"source"`
	CreatedAt time.Time  `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" dynamodbav:"updatedAt"`
}

// IsSuperLike reports whether the signal is a LIKE carrying the super-like marker.
func (s *Signal) IsSuperLike() bool {
	return s != nil && s.Type == SignalLike && s.Meta.SuperLike != nil
}

// InteractionContext carries per-request flags for the interaction engine.
type InteractionContext struct {
	// LiveEvent relaxes the profile gate to "primary photo present" on both sides.
	LiveEvent bool   `json:"liveEvent"`
	Source    string `json:"source,omitempty"`
}

// InteractionResult is the uniform result of every signal operation.
type InteractionResult struct {
	Signal    *Signal `json:"record"`
	Mutual    *bool   `json:"mutual"`
	Message   string  `json:"message"`
	ViewCount *int64  `json:"viewCount,omitempty"`
}
