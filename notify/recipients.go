// Package notify delivers engine events to clients and other services. Every sink here
// implements the services NotificationSink contract.
package notify

import (
	"fmt"

	"wedmatch_server/models"
)

// AdminRoom receives moderation and batch events that have no end-user recipient.
const AdminRoom = "admin"

func UserRoom(userID int64) string { return fmt.Sprintf("user:%d", userID) }

func MatchRoom(matchID string) string { return "match:" + matchID }

// Recipients lists the users an event is addressed to.
func Recipients(eventType string, payload map[string]interface{}) []int64 {
	switch eventType {
	case models.EventLikeReceived, models.EventSuperLike:
		return ids(payload["targetId"])
	case models.EventOpeningReceived:
		return ids(payload["recipientId"])
	case models.EventMatchApproved, models.EventMatchClosed:
		return ids(payload["otherUserId"])
	case models.EventMutualLike, models.EventMatchCreated, models.EventMatchMutual, models.EventOpeningAccepted:
		return ids(payload["userIds"])
	default:
		return nil
	}
}

// Rooms lists the socket rooms an event is broadcast to.
func Rooms(eventType string, payload map[string]interface{}) []string {
	users := Recipients(eventType, payload)
	if len(users) == 0 {
		return []string{AdminRoom}
	}
	rooms := make([]string, 0, len(users)+1)
	for _, id := range users {
		rooms = append(rooms, UserRoom(id))
	}
	if matchID, ok := payload["matchId"].(string); ok && matchID != "" {
		rooms = append(rooms, MatchRoom(matchID))
	}
	return rooms
}

func ids(v interface{}) []int64 {
	switch t := v.(type) {
	case int64:
		return []int64{t}
	case []int64:
		return t
	default:
		return nil
	}
}
