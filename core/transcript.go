package core

import "time"

// Transcript sender identities. The store rejects anything else.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage is one append-only transcript entry. Timestamps are assigned by
// the store on insert and never decrease per user; stores order by their own
// insertion sequence, with the timestamp as a human-readable record.
type ChatMessage struct {
	UserID    string    `json:"user_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"message_text"`
	Timestamp time.Time `json:"timestamp"`
}
