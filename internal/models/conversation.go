package models

import "time"

const ConversationTypeDirect = "direct"

type Conversation struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Participants []string  `json:"participants,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationSummary is one entry of a user's conversation list: the
// conversation plus the other participants.
type ConversationSummary struct {
	ConversationID string     `json:"conversation_id"`
	Users          []User     `json:"users"`
	LastMessage    string     `json:"last_message,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
}
