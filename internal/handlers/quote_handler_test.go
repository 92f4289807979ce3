package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
)

type stubQuoteService struct {
	submitResult *models.Quote
	submitErr    error
	listResult   []models.Quote
	listErr      error
	authorizeErr error

	lastActorID        string
	lastConversationID string
	lastInput          services.SubmitQuoteInput
	authorizeCalls     int
}

func (s *stubQuoteService) SubmitQuote(_ context.Context, actorID string, conversationID string, input services.SubmitQuoteInput) (*models.Quote, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastInput = input
	return s.submitResult, s.submitErr
}

func (s *stubQuoteService) ListQuotes(_ context.Context, actorID string, conversationID string) ([]models.Quote, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.listResult, s.listErr
}

func (s *stubQuoteService) AuthorizeAttachmentUpload(_ context.Context, actorID string, conversationID string) error {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.authorizeCalls++
	return s.authorizeErr
}

type stubUploadStorage struct {
	uploaded  []string
	uploadErr error
}

func (s *stubUploadStorage) Upload(_ context.Context, _ multipart.File, objectPath string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploaded = append(s.uploaded, objectPath)
	return objectPath, nil
}

func (s *stubUploadStorage) Delete(_ context.Context, _ string) error { return nil }

func (s *stubUploadStorage) SignedURL(_ context.Context, objectPath string) (string, error) {
	return "https://files.example/signed/" + objectPath, nil
}

func newQuoteApp(service *stubQuoteService, userID, role string) *fiber.App {
	return newQuoteAppWithStorage(service, nil, userID, role)
}

func newQuoteAppWithStorage(service *stubQuoteService, storage services.StorageService, userID, role string) *fiber.App {
	handler := NewQuoteHandler(service, storage)

	app := fiber.New(fiber.Config{BodyLimit: 8 * 1024 * 1024})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Post("/api/v1/conversations/:id/quotes", handler.SubmitQuote)
	app.Get("/api/v1/conversations/:id/quotes", handler.ListQuotes)
	app.Post("/api/v1/conversations/:id/quotes/attachment", handler.UploadAttachment)
	return app
}

func newAttachmentRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/conv-1/quotes/attachment", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmitQuoteReturnsCreatedID(t *testing.T) {
	service := &stubQuoteService{
		submitResult: &models.Quote{ID: "qt-1", Total: 800, Currency: "MXN"},
	}
	app := newQuoteApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/conv-1/quotes", strings.NewReader(`{
		"items": [
			{"concept": "Mano de obra", "amount": 500},
			{"concept": "Materiales", "amount": 300}
		]
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastConversationID != "conv-1" {
		t.Fatalf("expected conv-1, got %q", service.lastConversationID)
	}
	if len(service.lastInput.Items) != 2 {
		t.Fatalf("expected 2 items forwarded, got %d", len(service.lastInput.Items))
	}

	var body struct {
		OK bool   `json:"ok"`
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.OK || body.ID != "qt-1" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestSubmitQuoteByClientReturnsOnlyProCode(t *testing.T) {
	service := &stubQuoteService{submitErr: services.ErrOnlyProCanQuote}
	app := newQuoteApp(service, "cli-1", "client")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/conv-1/quotes", strings.NewReader(`{
		"items": [{"concept": "Visita", "amount": 100}]
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != "ONLY_PRO_CAN_QUOTE" {
		t.Fatalf("expected ONLY_PRO_CAN_QUOTE, got %q", body.Error)
	}
}

func TestSubmitQuoteWithMissingItemsReturnsBadRequest(t *testing.T) {
	service := &stubQuoteService{submitErr: services.ErrInvalidInput}
	app := newQuoteApp(service, "pro-1", "pro")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/conv-1/quotes", strings.NewReader(`{"items": []}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListQuotesReturnsQuotesForParticipant(t *testing.T) {
	service := &stubQuoteService{
		listResult: []models.Quote{{ID: "qt-1", Total: 800}, {ID: "qt-2", Total: 1200}},
	}
	app := newQuoteApp(service, "cli-1", "client")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/conv-1/quotes", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		OK     bool           `json:"ok"`
		Quotes []models.Quote `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(body.Quotes))
	}
}

func TestUploadAttachmentStoresFileAndReturnsPath(t *testing.T) {
	service := &stubQuoteService{}
	storage := &stubUploadStorage{}
	app := newQuoteAppWithStorage(service, storage, "pro-1", "pro")

	resp, err := app.Test(newAttachmentRequest(t, "foto.png", []byte("png-bytes")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.authorizeCalls != 1 || service.lastConversationID != "conv-1" {
		t.Fatalf("expected one authorization for conv-1, got %d for %q", service.authorizeCalls, service.lastConversationID)
	}

	var body struct {
		OK        bool   `json:"ok"`
		ImagePath string `json:"image_path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.OK || !strings.HasPrefix(body.ImagePath, "quotes/conv-1/") || !strings.HasSuffix(body.ImagePath, ".png") {
		t.Fatalf("unexpected image path: %+v", body)
	}
	if len(storage.uploaded) != 1 || storage.uploaded[0] != body.ImagePath {
		t.Fatalf("expected stored path returned, got %v", storage.uploaded)
	}
}

func TestUploadAttachmentByOutsiderIsForbidden(t *testing.T) {
	service := &stubQuoteService{authorizeErr: services.ErrOnlyProCanQuote}
	storage := &stubUploadStorage{}
	app := newQuoteAppWithStorage(service, storage, "cli-1", "client")

	resp, err := app.Test(newAttachmentRequest(t, "foto.png", []byte("png-bytes")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("expected no upload after denial, got %v", storage.uploaded)
	}
}

func TestUploadAttachmentRejectsUnsupportedExtension(t *testing.T) {
	service := &stubQuoteService{}
	storage := &stubUploadStorage{}
	app := newQuoteAppWithStorage(service, storage, "pro-1", "pro")

	resp, err := app.Test(newAttachmentRequest(t, "presupuesto.pdf", []byte("%PDF-1.4")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Error != "UNSUPPORTED_FILE_TYPE" {
		t.Fatalf("expected UNSUPPORTED_FILE_TYPE, got %q", body.Error)
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("expected no upload, got %v", storage.uploaded)
	}
}

func TestUploadAttachmentRejectsOversizedFile(t *testing.T) {
	service := &stubQuoteService{}
	storage := &stubUploadStorage{}
	app := newQuoteAppWithStorage(service, storage, "pro-1", "pro")

	oversized := bytes.Repeat([]byte("x"), maxQuoteAttachmentBytes+1)
	resp, err := app.Test(newAttachmentRequest(t, "foto.jpg", oversized))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("expected no upload, got %v", storage.uploaded)
	}
}

func TestUploadAttachmentWithoutStorageIsUnavailable(t *testing.T) {
	app := newQuoteAppWithStorage(&stubQuoteService{}, nil, "pro-1", "pro")

	resp, err := app.Test(newAttachmentRequest(t, "foto.png", []byte("png-bytes")))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
