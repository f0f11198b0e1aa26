package models

// ProfileState is the read-only gate input supplied by the profile service.
type ProfileState struct {
	UserID                int64 `json:"userId"`
	HasPrimaryPhoto       bool  `json:"hasPrimaryPhoto"`
	PhotoCount            int   `json:"photoCount"`
	BasicProfileCompleted bool  `json:"basicProfileCompleted"`
	DeletionRequested     bool  `json:"deletionRequested"`
}

// UserProfile is the slice of a profile the engine reads: gate flags plus the attributes
// the compatibility scorer needs.
type UserProfile struct {
	UserID                int64    `json:"userId" dynamodbav:"userId"`
	Gender                string   `json:"gender,omitempty" dynamodbav:"gender,omitempty"`
	Age                   *int     `json:"age,omitempty" dynamodbav:"age,omitempty"`
	PreferredAgeMin       *int     `json:"preferredAgeMin,omitempty" dynamodbav:"preferredAgeMin,omitempty"`
	PreferredAgeMax       *int     `json:"preferredAgeMax,omitempty" dynamodbav:"preferredAgeMax,omitempty"`
	Area                  string   `json:"area,omitempty" dynamodbav:"area,omitempty"`
	ReligiousLevel        string   `json:"religiousLevel,omitempty" dynamodbav:"religiousLevel,omitempty"`
	LastEventID           string   `json:"lastEventId,omitempty" dynamodbav:"lastEventId,omitempty"`
	Photos                []string `json:"photos,omitempty" dynamodbav:"photos,omitempty"`
	PrimaryPhoto          string   `json:"primaryPhoto,omitempty" dynamodbav:"primaryPhoto,omitempty"`
	BasicProfileCompleted bool     `json:"basicProfileCompleted" dynamodbav:"basicProfileCompleted"`
	DeletionRequested     bool     `json:"deletionRequested" dynamodbav:"deletionRequested"`
}

// State projects the gate flags out of the profile.
func (p *UserProfile) State() ProfileState {
	return ProfileState{
		UserID:                p.UserID,
		HasPrimaryPhoto:       p.PrimaryPhoto != "" || len(p.Photos) > 0,
		PhotoCount:            len(p.Photos),
		BasicProfileCompleted: p.BasicProfileCompleted,
		DeletionRequested:     p.DeletionRequested,
	}
}
