package models

import "time"

type ServiceRequest struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	City        *string   `json:"city"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
