package models

import "time"

const (
	OfferStatusSent     = "sent"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
	OfferStatusExpired  = "expired"
	OfferStatusCanceled = "canceled"
	OfferStatusPaid     = "paid"
)

type Offer struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	RequestID      *string   `json:"request_id"`
	ProfessionalID string    `json:"professional_id"`
	ClientID       string    `json:"client_id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	Status         string    `json:"status"`
	RejectReason   *string   `json:"reject_reason"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const (
	AgreementStatusNegotiating = "negotiating"
	AgreementStatusAccepted    = "accepted"
	AgreementStatusPaid        = "paid"
	AgreementStatusInProgress  = "in_progress"
	AgreementStatusCompleted   = "completed"
	AgreementStatusCancelled   = "cancelled"
	AgreementStatusDisputed    = "disputed"
)

type Agreement struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	ClientID       string    `json:"client_id"`
	ProfessionalID string    `json:"professional_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
