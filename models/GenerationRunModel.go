package models

import "time"

// GenerationRun summarises one MatchGenerator invocation.
type GenerationRun struct {
	RunID       string    `json:"runId"`
	CohortID    string    `json:"cohortId"`
	MinScore    float64   `json:"minScore"`
	Members     int       `json:"members"`
	PairsScored int       `json:"pairsScored"`
	Qualifying  int       `json:"qualifying"`
	Created     int       `json:"created"`
	Existing    int       `json:"existing"`
	Failed      int       `json:"failed"`
	MatchIDs    []string  `json:"matchIds"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}
