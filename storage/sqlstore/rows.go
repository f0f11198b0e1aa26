package sqlstore

import (
	"time"

	"gorm.io/datatypes"

	"wedmatch_server/models"
)

type signalRow struct {
	ID        string                                `gorm:"primaryKey;type:varchar(64)"`
	ActorID   int64                                 `gorm:"not null;index:idx_signals_actor,priority:1"`
	TargetID  int64                                 `gorm:"not null;index:idx_signals_target,priority:1"`
	Type      string                                `gorm:"not null;type:varchar(16);index:idx_signals_target,priority:2"`
	Active    bool                                  `gorm:"not null;index:idx_signals_actor,priority:2"`
	Reason    *string                               `gorm:"type:text"`
	Meta      datatypes.JSONType[models.SignalMeta] `gorm:"column:metadata"`
	Source    string                                `gorm:"not null;type:varchar(16)"`
	CreatedAt time.Time                             `gorm:"not null;index"`
	UpdatedAt time.Time                             `gorm:"not null;autoUpdateTime:false"`
}

func (signalRow) TableName() string { return "signals" }

func toSignalRow(s *models.Signal) *signalRow {
	return &signalRow{
		ID:        s.ID,
		ActorID:   s.ActorID,
		TargetID:  s.TargetID,
		Type:      string(s.Type),
		Active:    s.Active,
		Reason:    s.Reason,
		Meta:      datatypes.NewJSONType(s.Meta),
		Source:    s.Source,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *signalRow) model() *models.Signal {
	return &models.Signal{
		ID:        r.ID,
		ActorID:   r.ActorID,
		TargetID:  r.TargetID,
		Type:      models.ParseSignalType(r.Type),
		Active:    r.Active,
		Reason:    r.Reason,
		Meta:      r.Meta.Data(),
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type matchRow struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)"`
	UserLowID        int64     `gorm:"not null;uniqueIndex:idx_matches_pair,priority:1"`
	UserHighID       int64     `gorm:"not null;uniqueIndex:idx_matches_pair,priority:2;index"`
	MeetingContextID *string   `gorm:"type:varchar(128)"`
	OriginContextID  *string   `gorm:"type:varchar(128)"`
	Score            float64   `gorm:"not null;default:0;index"`
	Source           string    `gorm:"not null;type:varchar(16);index"`
	User1Approved    bool      `gorm:"not null"`
	User2Approved    bool      `gorm:"not null"`
	MutualApproved   bool      `gorm:"not null"`
	Active           bool      `gorm:"not null"`
	Blocked          bool      `gorm:"not null"`
	Frozen           bool      `gorm:"not null"`
	FreezeReason     *string   `gorm:"type:text"`
	ChatOpened       bool      `gorm:"not null"`
	UnreadLow        int       `gorm:"not null;default:0"`
	UnreadHigh       int       `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (matchRow) TableName() string { return "matches" }

func toMatchRow(m *models.Match) *matchRow {
	return &matchRow{
		ID:               m.ID,
		UserLowID:        m.UserLowID,
		UserHighID:       m.UserHighID,
		MeetingContextID: m.MeetingContextID,
		OriginContextID:  m.OriginContextID,
		Score:            m.Score,
		Source:           m.Source,
		User1Approved:    m.User1Approved,
		User2Approved:    m.User2Approved,
		MutualApproved:   m.MutualApproved,
		Active:           m.Active,
		Blocked:          m.Blocked,
		Frozen:           m.Frozen,
		FreezeReason:     m.FreezeReason,
		ChatOpened:       m.ChatOpened,
		UnreadLow:        m.UnreadLow,
		UnreadHigh:       m.UnreadHigh,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (r *matchRow) model() *models.Match {
	return &models.Match{
		ID:               r.ID,
		UserLowID:        r.UserLowID,
		UserHighID:       r.UserHighID,
		MeetingContextID: r.MeetingContextID,
		OriginContextID:  r.OriginContextID,
		Score:            r.Score,
		Source:           r.Source,
		User1Approved:    r.User1Approved,
		User2Approved:    r.User2Approved,
		MutualApproved:   r.MutualApproved,
		Active:           r.Active,
		Blocked:          r.Blocked,
		Frozen:           r.Frozen,
		FreezeReason:     r.FreezeReason,
		ChatOpened:       r.ChatOpened,
		UnreadLow:        r.UnreadLow,
		UnreadHigh:       r.UnreadHigh,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type openingRow struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)"`
	SenderID    int64     `gorm:"not null;index:idx_openings_pair,priority:1"`
	RecipientID int64     `gorm:"not null;index:idx_openings_pair,priority:2;index:idx_openings_recipient"`
	Content     string    `gorm:"not null;type:text"`
	IsOpening   bool      `gorm:"not null"`
	MatchID     *string   `gorm:"type:varchar(64)"`
	Deleted     bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (openingRow) TableName() string { return "opening_messages" }

func toOpeningRow(m *models.OpeningMessage) *openingRow {
	return &openingRow{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Content:     m.Content,
		IsOpening:   m.IsOpening,
		MatchID:     m.MatchID,
		Deleted:     m.Deleted,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *openingRow) model() *models.OpeningMessage {
	return &models.OpeningMessage{
		ID:          r.ID,
		SenderID:    r.SenderID,
		RecipientID: r.RecipientID,
		Content:     r.Content,
		IsOpening:   r.IsOpening,
		MatchID:     r.MatchID,
		Deleted:     r.Deleted,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type profileRow struct {
	UserID                int64  `gorm:"primaryKey;autoIncrement:false"`
	Gender                string `gorm:"type:varchar(16)"`
	Age                   *int
	PreferredAgeMin       *int
	PreferredAgeMax       *int
	Area                  string `gorm:"type:varchar(128)"`
	ReligiousLevel        string `gorm:"type:varchar(64)"`
	LastEventID           string `gorm:"type:varchar(128);index"`
	Photos                datatypes.JSONSlice[string]
	PrimaryPhoto          string `gorm:"type:text"`
	BasicProfileCompleted bool   `gorm:"not null"`
	DeletionRequested     bool   `gorm:"not null"`
}

func (profileRow) TableName() string { return "user_profiles" }

func toProfileRow(p *models.UserProfile) *profileRow {
	return &profileRow{
		UserID:                p.UserID,
		Gender:                p.Gender,
		Age:                   p.Age,
		PreferredAgeMin:       p.PreferredAgeMin,
		PreferredAgeMax:       p.PreferredAgeMax,
		Area:                  p.Area,
		ReligiousLevel:        p.ReligiousLevel,
		LastEventID:           p.LastEventID,
		Photos:                datatypes.JSONSlice[string](p.Photos),
		PrimaryPhoto:          p.PrimaryPhoto,
		BasicProfileCompleted: p.BasicProfileCompleted,
		DeletionRequested:     p.DeletionRequested,
	}
}

func (r *profileRow) model() *models.UserProfile {
	return &models.UserProfile{
		UserID:                r.UserID,
		Gender:                r.Gender,
		Age:                   r.Age,
		PreferredAgeMin:       r.PreferredAgeMin,
		PreferredAgeMax:       r.PreferredAgeMax,
		Area:                  r.Area,
		ReligiousLevel:        r.ReligiousLevel,
		LastEventID:           r.LastEventID,
		Photos:                []string(r.Photos),
		PrimaryPhoto:          r.PrimaryPhoto,
		BasicProfileCompleted: r.BasicProfileCompleted,
		DeletionRequested:     r.DeletionRequested,
	}
}
