package services

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

const maxQuoteConceptLength = 200

type quoteStore interface {
	Create(ctx context.Context, input repository.CreateQuoteInput) (*models.Quote, error)
	ListByConversation(ctx context.Context, conversationID string) ([]models.Quote, error)
}

type QuoteService struct {
	quoteRepo        quoteStore
	conversationRepo conversationReader
	storage          StorageService
}

func NewQuoteService(quoteRepo quoteStore, conversationRepo conversationReader, storage StorageService) *QuoteService {
	return &QuoteService{
		quoteRepo:        quoteRepo,
		conversationRepo: conversationRepo,
		storage:          storage,
	}
}

type SubmitQuoteInput struct {
	Currency  string
	Items     []models.QuoteItem
	Total     *float64
	ImagePath *string
}

// SubmitQuote persists an itemized quote with an authoritative total: the
// client-supplied total wins only when it is finite and positive, otherwise
// the total is recomputed as the sum of the item amounts.
func (s *QuoteService) SubmitQuote(ctx context.Context, actorID string, conversationID string, input SubmitQuoteInput) (*models.Quote, error) {
	if len(input.Items) == 0 {
		return nil, ErrInvalidInput
	}
	items := make([]models.QuoteItem, 0, len(input.Items))
	for _, item := range input.Items {
		concept := strings.TrimSpace(item.Concept)
		if concept == "" || utf8.RuneCountInString(concept) > maxQuoteConceptLength {
			return nil, ErrInvalidInput
		}
		if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) || item.Amount < 0 {
			return nil, ErrInvalidInput
		}
		items = append(items, models.QuoteItem{Concept: concept, Amount: item.Amount})
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if conversation.ProID != actorID {
		return nil, ErrOnlyProCanQuote
	}

	total := 0.0
	if input.Total != nil && !math.IsNaN(*input.Total) && !math.IsInf(*input.Total, 0) && *input.Total > 0 {
		total = *input.Total
	} else {
		for _, item := range items {
			total += item.Amount
		}
	}

	quote, err := s.quoteRepo.Create(ctx, repository.CreateQuoteInput{
		ConversationID: conversation.ID,
		ProfessionalID: actorID,
		Currency:       NormalizeCurrency(input.Currency),
		Items:          items,
		Total:          total,
		ImagePath:      input.ImagePath,
	})
	if err != nil {
		// The attachment was uploaded before the quote row existed; without
		// the row it is unreachable, so remove it instead of leaking it.
		if input.ImagePath != nil && s.storage != nil {
			if delErr := s.storage.Delete(ctx, *input.ImagePath); delErr != nil {
				log.Printf("delete orphaned quote attachment %s: %v", *input.ImagePath, delErr)
			}
		}
		return nil, err
	}
	return quote, nil
}

// AuthorizeAttachmentUpload gates the attachment endpoint the same way
// SubmitQuote gates the quote itself: only the conversation's professional
// may store files under it.
func (s *QuoteService) AuthorizeAttachmentUpload(ctx context.Context, actorID string, conversationID string) error {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if conversation.ProID != actorID {
		return ErrOnlyProCanQuote
	}
	return nil
}

func (s *QuoteService) ListQuotes(ctx context.Context, actorID string, conversationID string) ([]models.Quote, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := ParticipantRole(conversation, actorID); err != nil {
		return nil, err
	}

	quotes, err := s.quoteRepo.ListByConversation(ctx, conversation.ID)
	if err != nil {
		return nil, err
	}
	s.resolveAttachmentURLs(ctx, quotes)
	return quotes, nil
}

// resolveAttachmentURLs swaps stored object paths for short-lived signed
// URLs. Signing is best effort: a quote whose attachment cannot be signed
// still lists, just without image_url.
func (s *QuoteService) resolveAttachmentURLs(ctx context.Context, quotes []models.Quote) {
	if s.storage == nil {
		return
	}
	for i := range quotes {
		if quotes[i].ImagePath == nil {
			continue
		}
		url, err := s.storage.SignedURL(ctx, *quotes[i].ImagePath)
		if err != nil {
			log.Printf("sign quote attachment %s: %v", *quotes[i].ImagePath, err)
			continue
		}
		quotes[i].ImageURL = &url
	}
}
