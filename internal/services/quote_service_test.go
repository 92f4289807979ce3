package services

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

type stubQuoteStore struct {
	created    []repository.CreateQuoteInput
	createErr  error
	listResult []models.Quote
}

func (s *stubQuoteStore) Create(_ context.Context, input repository.CreateQuoteInput) (*models.Quote, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return &models.Quote{
		ID:             "quo-created",
		ConversationID: input.ConversationID,
		ProfessionalID: input.ProfessionalID,
		Currency:       input.Currency,
		Items:          input.Items,
		Total:          input.Total,
		ImagePath:      input.ImagePath,
		Status:         "sent",
	}, nil
}

func (s *stubQuoteStore) ListByConversation(_ context.Context, _ string) ([]models.Quote, error) {
	return s.listResult, nil
}

type stubAttachmentStorage struct {
	deleted []string
	signed  []string
	signErr error
}

func (s *stubAttachmentStorage) Upload(_ context.Context, _ multipart.File, objectPath string) (string, error) {
	return objectPath, nil
}

func (s *stubAttachmentStorage) Delete(_ context.Context, objectPath string) error {
	s.deleted = append(s.deleted, objectPath)
	return nil
}

func (s *stubAttachmentStorage) SignedURL(_ context.Context, objectPath string) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	s.signed = append(s.signed, objectPath)
	return "https://files.example/signed/" + objectPath, nil
}

func quoteConversation() *models.Conversation {
	return &models.Conversation{
		ID:         "conv-1",
		CustomerID: "cli-1",
		ProID:      "pro-1",
	}
}

func TestSubmitQuoteRecomputesMissingTotal(t *testing.T) {
	store := &stubQuoteStore{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), nil)

	quote, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
		Items: []models.QuoteItem{
			{Concept: "mano de obra", Amount: 500},
			{Concept: "materiales", Amount: 300},
		},
	})
	if err != nil {
		t.Fatalf("SubmitQuote: %v", err)
	}
	if quote.Total != 800 {
		t.Fatalf("expected recomputed total 800, got %v", quote.Total)
	}
	if quote.Currency != "MXN" {
		t.Fatalf("expected default MXN currency, got %s", quote.Currency)
	}
}

func TestSubmitQuoteRecomputesNonPositiveTotals(t *testing.T) {
	for _, total := range []float64{0, -10} {
		store := &stubQuoteStore{}
		service := NewQuoteService(store, newStubConversationReader(quoteConversation()), nil)

		quote, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
			Items: []models.QuoteItem{{Concept: "visita", Amount: 250}},
			Total: &total,
		})
		if err != nil {
			t.Fatalf("SubmitQuote with total %v: %v", total, err)
		}
		if quote.Total != 250 {
			t.Fatalf("expected recomputed total 250 for client total %v, got %v", total, quote.Total)
		}
	}
}

func TestSubmitQuoteKeepsPositiveClientTotal(t *testing.T) {
	total := 950.0
	store := &stubQuoteStore{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), nil)

	quote, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
		Currency: "usd",
		Items:    []models.QuoteItem{{Concept: "instalacion", Amount: 400}},
		Total:    &total,
	})
	if err != nil {
		t.Fatalf("SubmitQuote: %v", err)
	}
	if quote.Total != 950 {
		t.Fatalf("expected client total 950 to win, got %v", quote.Total)
	}
	if quote.Currency != "USD" {
		t.Fatalf("expected uppercased currency, got %s", quote.Currency)
	}
}

func TestSubmitQuoteRejectsNonFiniteClientTotal(t *testing.T) {
	total := math.Inf(1)
	store := &stubQuoteStore{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), nil)

	quote, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
		Items: []models.QuoteItem{{Concept: "flete", Amount: 120}},
		Total: &total,
	})
	if err != nil {
		t.Fatalf("SubmitQuote: %v", err)
	}
	if quote.Total != 120 {
		t.Fatalf("expected non-finite client total discarded, got %v", quote.Total)
	}
}

func TestSubmitQuoteOnlyProCanQuote(t *testing.T) {
	service := NewQuoteService(&stubQuoteStore{}, newStubConversationReader(quoteConversation()), nil)

	_, err := service.SubmitQuote(context.Background(), "cli-1", "conv-1", SubmitQuoteInput{
		Items: []models.QuoteItem{{Concept: "pintura", Amount: 100}},
	})
	if !errors.Is(err, ErrOnlyProCanQuote) {
		t.Fatalf("expected ErrOnlyProCanQuote, got %v", err)
	}
}

func TestSubmitQuoteValidatesItems(t *testing.T) {
	service := NewQuoteService(&stubQuoteStore{}, newStubConversationReader(quoteConversation()), nil)

	cases := []SubmitQuoteInput{
		{Items: nil},
		{Items: []models.QuoteItem{{Concept: "", Amount: 10}}},
		{Items: []models.QuoteItem{{Concept: "ok", Amount: -5}}},
		{Items: []models.QuoteItem{{Concept: "ok", Amount: math.NaN()}}},
	}
	for i, input := range cases {
		if _, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSubmitQuoteAllowsMultibyteConceptAtLimit(t *testing.T) {
	store := &stubQuoteStore{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), nil)

	concept := strings.Repeat("ñ", maxQuoteConceptLength)
	_, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
		Items: []models.QuoteItem{{Concept: concept, Amount: 100}},
	})
	if err != nil {
		t.Fatalf("SubmitQuote with %d-rune concept: %v", maxQuoteConceptLength, err)
	}
}

func TestSubmitQuoteDeletesAttachmentWhenInsertFails(t *testing.T) {
	store := &stubQuoteStore{createErr: errors.New("insert failed")}
	storage := &stubAttachmentStorage{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), storage)

	imagePath := "quotes/conv-1/att-1.png"
	_, err := service.SubmitQuote(context.Background(), "pro-1", "conv-1", SubmitQuoteInput{
		Items:     []models.QuoteItem{{Concept: "visita", Amount: 250}},
		ImagePath: &imagePath,
	})
	if err == nil {
		t.Fatal("expected insert error to surface")
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != imagePath {
		t.Fatalf("expected orphaned attachment deleted, got %v", storage.deleted)
	}
}

func TestListQuotesResolvesSignedAttachmentURLs(t *testing.T) {
	imagePath := "quotes/conv-1/att-1.png"
	store := &stubQuoteStore{listResult: []models.Quote{
		{ID: "quo-1", ImagePath: &imagePath},
		{ID: "quo-2"},
	}}
	storage := &stubAttachmentStorage{}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), storage)

	quotes, err := service.ListQuotes(context.Background(), "cli-1", "conv-1")
	if err != nil {
		t.Fatalf("ListQuotes: %v", err)
	}
	if quotes[0].ImageURL == nil || *quotes[0].ImageURL != "https://files.example/signed/"+imagePath {
		t.Fatalf("expected signed url on quo-1, got %v", quotes[0].ImageURL)
	}
	if quotes[1].ImageURL != nil {
		t.Fatalf("expected no url without attachment, got %v", quotes[1].ImageURL)
	}
}

func TestListQuotesSigningFailureLeavesPathOnly(t *testing.T) {
	imagePath := "quotes/conv-1/att-1.png"
	store := &stubQuoteStore{listResult: []models.Quote{{ID: "quo-1", ImagePath: &imagePath}}}
	storage := &stubAttachmentStorage{signErr: errors.New("storage down")}
	service := NewQuoteService(store, newStubConversationReader(quoteConversation()), storage)

	quotes, err := service.ListQuotes(context.Background(), "cli-1", "conv-1")
	if err != nil {
		t.Fatalf("ListQuotes: %v", err)
	}
	if quotes[0].ImageURL != nil {
		t.Fatalf("expected nil url when signing fails, got %v", quotes[0].ImageURL)
	}
	if quotes[0].ImagePath == nil || *quotes[0].ImagePath != imagePath {
		t.Fatalf("expected path untouched, got %v", quotes[0].ImagePath)
	}
}

func TestAuthorizeAttachmentUploadOnlyForConversationPro(t *testing.T) {
	service := NewQuoteService(&stubQuoteStore{}, newStubConversationReader(quoteConversation()), nil)

	if err := service.AuthorizeAttachmentUpload(context.Background(), "pro-1", "conv-1"); err != nil {
		t.Fatalf("AuthorizeAttachmentUpload by pro: %v", err)
	}
	if err := service.AuthorizeAttachmentUpload(context.Background(), "cli-1", "conv-1"); !errors.Is(err, ErrOnlyProCanQuote) {
		t.Fatalf("expected ErrOnlyProCanQuote for client, got %v", err)
	}
	if err := service.AuthorizeAttachmentUpload(context.Background(), "pro-1", "conv-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitQuoteUnknownConversationIsNotFound(t *testing.T) {
	service := NewQuoteService(&stubQuoteStore{}, newStubConversationReader(), nil)

	_, err := service.SubmitQuote(context.Background(), "pro-1", "conv-missing", SubmitQuoteInput{
		Items: []models.QuoteItem{{Concept: "ok", Amount: 10}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
