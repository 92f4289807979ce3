package services

import (
	"errors"

	"github.com/hlira-mx/ChambaAppBack/internal/contactguard"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrUpdateConflict  = errors.New("update conflict")
	ErrOnlyProCanQuote = errors.New("only the professional can quote")
)

// ContactBlockedError carries the guard findings back to the handler so the
// response can include them alongside the configured message.
type ContactBlockedError struct {
	Message  string
	Findings []contactguard.Finding
}

func (e *ContactBlockedError) Error() string {
	return "contact information blocked"
}
