package models

import "time"

type QuoteItem struct {
	Concept string  `json:"concept"`
	Amount  float64 `json:"amount"`
}

type Quote struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	ProfessionalID string      `json:"professional_id"`
	Currency       string      `json:"currency"`
	Items          []QuoteItem `json:"items"`
	Total          float64     `json:"total"`
	ImagePath      *string     `json:"image_path"`
	// ImageURL is derived at read time by signing ImagePath, never stored.
	ImageURL  *string   `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OnsiteQuoteStatusPending  = "pending"
	OnsiteQuoteStatusAccepted = "accepted"
	OnsiteQuoteStatusRejected = "rejected"
)

type OnsiteQuoteRequest struct {
	ID                 string     `json:"id"`
	ConversationID     string     `json:"conversation_id"`
	ProfessionalID     string     `json:"professional_id"`
	ClientID           string     `json:"client_id"`
	Status             string     `json:"status"`
	RejectReason       *string    `json:"reject_reason"`
	DepositAmount      float64    `json:"deposit_amount"`
	DepositCheckoutURL *string    `json:"deposit_checkout_url"`
	DepositPaidAt      *time.Time `json:"deposit_paid_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
