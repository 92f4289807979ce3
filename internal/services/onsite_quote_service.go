package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

type onsiteQuoteStore interface {
	Create(ctx context.Context, input repository.CreateOnsiteQuoteInput) (*models.OnsiteQuoteRequest, error)
	GetByID(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error)
	UpdateStatusIfPending(ctx context.Context, requestID string, professionalID string, nextStatus string, rejectReason *string) (*models.OnsiteQuoteRequest, error)
	SetCheckoutURLIfEmpty(ctx context.Context, requestID string, url string) (*models.OnsiteQuoteRequest, error)
	MarkDepositPaidIfUnpaid(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error)
}

type CheckoutSessionInput struct {
	Title             string
	Amount            float64
	Currency          string
	ExternalReference string
	Metadata          map[string]any
}

type checkoutCreator interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (string, error)
}

type OnsiteQuoteService struct {
	onsiteRepo       onsiteQuoteStore
	conversationRepo conversationReader
	messageRepo      systemMessenger
	notifications    notifier
	checkout         checkoutCreator
}

func NewOnsiteQuoteService(
	onsiteRepo onsiteQuoteStore,
	conversationRepo conversationReader,
	messageRepo systemMessenger,
	notifications notifier,
	checkout checkoutCreator,
) *OnsiteQuoteService {
	return &OnsiteQuoteService{
		onsiteRepo:       onsiteRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notifications:    notifications,
		checkout:         checkout,
	}
}

func (s *OnsiteQuoteService) CreateRequest(ctx context.Context, actorID string, conversationID string, depositAmount float64) (*models.OnsiteQuoteRequest, error) {
	if depositAmount < 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	role, err := ParticipantRole(conversation, actorID)
	if err != nil {
		return nil, err
	}
	if role != RoleCustomer {
		return nil, ErrForbidden
	}

	return s.onsiteRepo.Create(ctx, repository.CreateOnsiteQuoteInput{
		ConversationID: conversation.ID,
		ProfessionalID: conversation.ProID,
		ClientID:       conversation.CustomerID,
		DepositAmount:  depositAmount,
	})
}

// DepositCheckoutURL returns the deposit checkout URL for the client, creating
// the payment session lazily on first call and reusing the cached URL after
// that so repeated calls never open duplicate sessions.
func (s *OnsiteQuoteService) DepositCheckoutURL(ctx context.Context, actorID string, requestID string) (string, error) {
	request, err := s.onsiteRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if request.ClientID != actorID {
		return "", ErrForbidden
	}
	if request.DepositCheckoutURL != nil && *request.DepositCheckoutURL != "" {
		return *request.DepositCheckoutURL, nil
	}
	if request.DepositAmount <= 0 {
		return "", ErrInvalidInput
	}
	if s.checkout == nil {
		return "", ErrInvalidStatus
	}

	url, err := s.checkout.CreateCheckoutSession(ctx, CheckoutSessionInput{
		Title:             "Onsite visit deposit",
		Amount:            request.DepositAmount,
		Currency:          "MXN",
		ExternalReference: "onsite:" + request.ID,
		Metadata: map[string]any{
			"onsite_quote_request_id": request.ID,
			"conversation_id":         request.ConversationID,
		},
	})
	if err != nil {
		return "", err
	}

	cached, err := s.onsiteRepo.SetCheckoutURLIfEmpty(ctx, request.ID, url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the caching race; the earlier session URL wins.
			current, err := s.onsiteRepo.GetByID(ctx, request.ID)
			if err != nil {
				return "", err
			}
			if current.DepositCheckoutURL != nil {
				return *current.DepositCheckoutURL, nil
			}
			return "", ErrUpdateConflict
		}
		return "", err
	}

	return *cached.DepositCheckoutURL, nil
}

// MarkDepositPaid is webhook-driven: no caller identity, idempotent through
// the conditional update. A replayed notification reports ErrUpdateConflict.
func (s *OnsiteQuoteService) MarkDepositPaid(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error) {
	updated, err := s.onsiteRepo.MarkDepositPaidIfUnpaid(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateConflict
		}
		return nil, err
	}

	s.emitSystemMessage(ctx, updated, updated.ClientID, "The visit deposit was paid")
	if s.notifications != nil {
		if err := s.notifications.Notify(ctx, updated.ProfessionalID, "ONSITE_DEPOSIT_PAID", "Onsite visit",
			"The client paid the visit deposit.",
			map[string]any{"onsite_quote_request_id": updated.ID}); err != nil {
			log.Printf("notify ONSITE_DEPOSIT_PAID %s: %v", updated.ProfessionalID, err)
		}
	}

	return updated, nil
}

func (s *OnsiteQuoteService) Accept(ctx context.Context, actorID string, requestID string) (*models.OnsiteQuoteRequest, error) {
	return s.transition(ctx, actorID, requestID, models.OnsiteQuoteStatusAccepted, nil,
		"The professional accepted the onsite visit request")
}

func (s *OnsiteQuoteService) Reject(ctx context.Context, actorID string, requestID string, reason string, description *string) (*models.OnsiteQuoteRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || utf8.RuneCountInString(reason) > maxRejectReasonLength {
		return nil, ErrInvalidInput
	}
	body := "The professional declined the onsite visit request"
	if description != nil && strings.TrimSpace(*description) != "" {
		body = body + ": " + strings.TrimSpace(*description)
	}
	return s.transition(ctx, actorID, requestID, models.OnsiteQuoteStatusRejected, &reason, body)
}

func (s *OnsiteQuoteService) transition(
	ctx context.Context,
	actorID string,
	requestID string,
	nextStatus string,
	rejectReason *string,
	systemBody string,
) (*models.OnsiteQuoteRequest, error) {
	request, err := s.onsiteRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.ProfessionalID != actorID {
		return nil, ErrForbidden
	}
	if request.Status != models.OnsiteQuoteStatusPending {
		return nil, ErrInvalidStatus
	}

	updated, err := s.onsiteRepo.UpdateStatusIfPending(ctx, requestID, actorID, nextStatus, rejectReason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateConflict
		}
		return nil, err
	}

	s.emitSystemMessage(ctx, updated, actorID, systemBody)
	s.notifyClient(ctx, updated, nextStatus)

	return updated, nil
}

func (s *OnsiteQuoteService) emitSystemMessage(ctx context.Context, request *models.OnsiteQuoteRequest, senderID string, body string) {
	payload, err := json.Marshal(map[string]any{
		"type":                    "onsite_quote_" + request.Status,
		"onsite_quote_request_id": request.ID,
	})
	if err != nil {
		log.Printf("onsite quote system message payload: %v", err)
		return
	}
	payloadStr := string(payload)

	if _, err := s.messageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: request.ConversationID,
		SenderID:       senderID,
		Kind:           models.MessageKindSystem,
		Content:        body,
		Payload:        &payloadStr,
	}); err != nil {
		log.Printf("onsite quote system message insert: %v", err)
	}
}

func (s *OnsiteQuoteService) notifyClient(ctx context.Context, request *models.OnsiteQuoteRequest, nextStatus string) {
	if s.notifications == nil {
		return
	}
	notifType := "ONSITE_QUOTE_ACCEPTED"
	body := "The professional accepted your onsite visit request."
	if nextStatus == models.OnsiteQuoteStatusRejected {
		notifType = "ONSITE_QUOTE_REJECTED"
		body = "The professional declined your onsite visit request."
	}
	if err := s.notifications.Notify(ctx, request.ClientID, notifType, "Onsite visit", body,
		map[string]any{"onsite_quote_request_id": request.ID}); err != nil {
		log.Printf("notify %s %s: %v", notifType, request.ClientID, err)
	}
}
