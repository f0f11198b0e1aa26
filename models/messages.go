package models

import "time"

// OpeningMessage is a first message sent while no Match exists between the pair.
type OpeningMessage struct {
	ID          string    `json:"messageId" dynamodbav:"messageId"`
	SenderID    int64     `json:"senderId" dynamodbav:"senderId"`
	RecipientID int64     `json:"recipientId" dynamodbav:"recipientId"`
	Content     string    `json:"content" dynamodbav:"content"`
	IsOpening   bool      `json:"isOpening" dynamodbav:"isOpening"`
	MatchID     *string   `json:"matchId,omitempty" dynamodbav:"matchId,omitempty"`
	Deleted     bool      `json:"deleted" dynamodbav:"deleted"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}
