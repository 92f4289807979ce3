package models

import "time"

type Conversation struct {
	ID         string    `json:"id"`
	RequestID  *string   `json:"request_id"`
	CustomerID string    `json:"customer_id"`
	ProID      string    `json:"pro_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	MessageKindUser   = "user"
	MessageKindSystem = "system"
)

type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Kind           string    `json:"kind"`
	Content        string    `json:"content"`
	Payload        *string   `json:"payload,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	LastMessage *ChatMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
