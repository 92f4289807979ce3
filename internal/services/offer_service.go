package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/hlira-mx/ChambaAppBack/internal/contactguard"
	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

const maxRejectReasonLength = 500

type offerStore interface {
	Create(ctx context.Context, input repository.CreateOfferInput) (*models.Offer, error)
	GetByID(ctx context.Context, offerID string) (*models.Offer, error)
	AcceptIfSent(ctx context.Context, offerID string, clientID string) (*models.Offer, error)
	RejectIfSent(ctx context.Context, offerID string, professionalID string, reason *string) (*models.Offer, error)
	MarkPaidIfAccepted(ctx context.Context, offerID string) (*models.Offer, error)
}

type agreementStore interface {
	GetByRequestAndPro(ctx context.Context, requestID string, professionalID string) (*models.Agreement, error)
	Create(ctx context.Context, input repository.CreateAgreementInput) (*models.Agreement, error)
	UpdateStatus(ctx context.Context, agreementID string, status string, amount *float64) (*models.Agreement, error)
}

type conversationReader interface {
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
}

type systemMessenger interface {
	Create(ctx context.Context, input repository.CreateMessageInput) (*models.ChatMessage, error)
}

type notifier interface {
	Notify(ctx context.Context, userID string, notifType string, title string, body string, data map[string]any) error
}

type OfferService struct {
	offerRepo        offerStore
	agreementRepo    agreementStore
	conversationRepo conversationReader
	messageRepo      systemMessenger
	notifications    notifier
	guardPolicy      contactguard.Policy
}

func NewOfferService(
	offerRepo offerStore,
	agreementRepo agreementStore,
	conversationRepo conversationReader,
	messageRepo systemMessenger,
	notifications notifier,
	guardPolicy contactguard.Policy,
) *OfferService {
	return &OfferService{
		offerRepo:        offerRepo,
		agreementRepo:    agreementRepo,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notifications:    notifications,
		guardPolicy:      guardPolicy,
	}
}

type CreateOfferInput struct {
	ConversationID string
	Title          string
	Description    *string
	Amount         float64
	Currency       string
}

func (s *OfferService) CreateOffer(ctx context.Context, actorID string, input CreateOfferInput) (*models.Offer, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Amount <= 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if conversation.ProID != actorID {
		return nil, ErrForbidden
	}

	guarded := contactguard.ValidateOfferFields(s.guardPolicy, contactguard.Input{
		Title:       title,
		Description: input.Description,
	})
	if !guarded.OK {
		return nil, &ContactBlockedError{Message: guarded.Message, Findings: guarded.Findings}
	}

	return s.offerRepo.Create(ctx, repository.CreateOfferInput{
		ConversationID: conversation.ID,
		RequestID:      conversation.RequestID,
		ProfessionalID: conversation.ProID,
		ClientID:       conversation.CustomerID,
		Title:          guarded.Title,
		Description:    guarded.Description,
		Amount:         input.Amount,
		Currency:       NormalizeCurrency(input.Currency),
	})
}

func (s *OfferService) GetOffer(ctx context.Context, actorID string, offerID string) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if offer.ClientID != actorID && offer.ProfessionalID != actorID {
		return nil, ErrForbidden
	}
	return offer, nil
}

// AcceptOffer moves a sent offer to accepted on behalf of the client. The
// ownership and status checks run up front for precise error codes; the update
// itself re-checks both so a concurrent transition loses cleanly.
func (s *OfferService) AcceptOffer(ctx context.Context, actorID string, offerID string) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if offer.ClientID != actorID {
		return nil, ErrForbidden
	}
	if offer.Status != models.OfferStatusSent {
		return nil, ErrInvalidStatus
	}

	updated, err := s.offerRepo.AcceptIfSent(ctx, offerID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateConflict
		}
		return nil, err
	}

	s.emitOfferSystemMessage(ctx, updated, actorID, "offer_accepted",
		fmt.Sprintf("Offer %q was accepted", updated.Title))
	s.notifyBestEffort(ctx, updated.ProfessionalID, "OFFER_ACCEPTED", "Offer accepted",
		"Your offer was accepted by the client.", map[string]any{"offer_id": updated.ID})
	s.syncAgreement(ctx, updated, models.OfferStatusAccepted)

	return updated, nil
}

func (s *OfferService) RejectOffer(ctx context.Context, actorID string, offerID string, reason *string) (*models.Offer, error) {
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if utf8.RuneCountInString(trimmed) > maxRejectReasonLength {
			return nil, ErrInvalidInput
		}
		reason = &trimmed
	}

	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if offer.ProfessionalID != actorID {
		return nil, ErrForbidden
	}
	if offer.Status != models.OfferStatusSent {
		return nil, ErrInvalidStatus
	}

	updated, err := s.offerRepo.RejectIfSent(ctx, offerID, actorID, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateConflict
		}
		return nil, err
	}

	s.syncAgreement(ctx, updated, models.OfferStatusRejected)

	return updated, nil
}

// MarkOfferPaid is driven by the payment webhook once the processor confirms
// the charge for an accepted offer.
func (s *OfferService) MarkOfferPaid(ctx context.Context, offerID string) (*models.Offer, error) {
	updated, err := s.offerRepo.MarkPaidIfAccepted(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUpdateConflict
		}
		return nil, err
	}

	s.notifyBestEffort(ctx, updated.ProfessionalID, "OFFER_PAID", "Offer paid",
		"The client paid your offer.", map[string]any{"offer_id": updated.ID})

	return updated, nil
}

// syncAgreement mirrors the offer outcome into the denormalized agreement used
// by completion and rating flows. It runs after the offer write commits and is
// not transactional with it; every failure is logged and swallowed so the
// primary transition still succeeds.
func (s *OfferService) syncAgreement(ctx context.Context, offer *models.Offer, offerStatus string) {
	requestID := ""
	if offer.RequestID != nil && *offer.RequestID != "" {
		requestID = *offer.RequestID
	} else {
		conversation, err := s.conversationRepo.GetByID(ctx, offer.ConversationID)
		if err != nil {
			log.Printf("agreement sync: load conversation %s: %v", offer.ConversationID, err)
			return
		}
		if conversation.RequestID != nil {
			requestID = *conversation.RequestID
		}
	}
	if requestID == "" {
		return
	}

	nextStatus := models.AgreementStatusAccepted
	if offerStatus == models.OfferStatusRejected {
		nextStatus = models.AgreementStatusCancelled
	}

	existing, err := s.agreementRepo.GetByRequestAndPro(ctx, requestID, offer.ProfessionalID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("agreement sync: lookup request %s pro %s: %v", requestID, offer.ProfessionalID, err)
			return
		}
		if _, err := s.agreementRepo.Create(ctx, repository.CreateAgreementInput{
			RequestID:      requestID,
			ClientID:       offer.ClientID,
			ProfessionalID: offer.ProfessionalID,
			Amount:         offer.Amount,
			Status:         nextStatus,
		}); err != nil {
			log.Printf("agreement sync: insert for request %s: %v", requestID, err)
		}
		return
	}

	var amount *float64
	if offer.Amount > 0 {
		amount = &offer.Amount
	}
	if _, err := s.agreementRepo.UpdateStatus(ctx, existing.ID, nextStatus, amount); err != nil {
		log.Printf("agreement sync: update %s: %v", existing.ID, err)
	}
}

func (s *OfferService) emitOfferSystemMessage(ctx context.Context, offer *models.Offer, senderID string, eventType string, body string) {
	payload, err := json.Marshal(map[string]any{
		"type":     eventType,
		"offer_id": offer.ID,
		"amount":   offer.Amount,
		"currency": offer.Currency,
	})
	if err != nil {
		log.Printf("offer system message payload: %v", err)
		return
	}
	payloadStr := string(payload)

	if _, err := s.messageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: offer.ConversationID,
		SenderID:       senderID,
		Kind:           models.MessageKindSystem,
		Content:        body,
		Payload:        &payloadStr,
	}); err != nil {
		log.Printf("offer system message insert: %v", err)
	}
}

func (s *OfferService) notifyBestEffort(ctx context.Context, userID string, notifType string, title string, body string, data map[string]any) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Notify(ctx, userID, notifType, title, body, data); err != nil {
		log.Printf("notify %s %s: %v", notifType, userID, err)
	}
}

func NormalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return "MXN"
	}
	return currency
}
