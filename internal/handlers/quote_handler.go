package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
)

const maxQuoteAttachmentBytes = 5 * 1024 * 1024

type quoteApplicationService interface {
	SubmitQuote(ctx context.Context, actorID string, conversationID string, input services.SubmitQuoteInput) (*models.Quote, error)
	ListQuotes(ctx context.Context, actorID string, conversationID string) ([]models.Quote, error)
	AuthorizeAttachmentUpload(ctx context.Context, actorID string, conversationID string) error
}

type QuoteHandler struct {
	service quoteApplicationService
	storage services.StorageService
}

func NewQuoteHandler(service quoteApplicationService, storage services.StorageService) *QuoteHandler {
	return &QuoteHandler{service: service, storage: storage}
}

type submitQuoteRequest struct {
	Currency  string             `json:"currency"`
	Items     []models.QuoteItem `json:"items"`
	Total     *float64           `json:"total"`
	ImagePath *string            `json:"image_path"`
}

func (h *QuoteHandler) SubmitQuote(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req submitQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	quote, err := h.service.SubmitQuote(c.Context(), userID, c.Params("id"), services.SubmitQuoteInput{
		Currency:  req.Currency,
		Items:     req.Items,
		Total:     req.Total,
		ImagePath: req.ImagePath,
	})
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "QUOTE_UPDATE_FAILED")
	}

	return respondCreated(c, fiber.Map{"id": quote.ID})
}

func (h *QuoteHandler) ListQuotes(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	quotes, err := h.service.ListQuotes(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "QUOTE_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"quotes": quotes})
}

// UploadAttachment stores a quote image and returns the object path the client
// sends back in the quote body. Only the conversation's professional may
// upload, and the file never hits local disk.
func (h *QuoteHandler) UploadAttachment(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}
	if h.storage == nil {
		return respondError(c, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE")
	}

	conversationID := c.Params("id")
	if err := h.service.AuthorizeAttachmentUpload(c.Context(), userID, conversationID); err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "QUOTE_UPDATE_FAILED")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}
	if fileHeader.Size > maxQuoteAttachmentBytes {
		return respondError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return respondError(c, fiber.StatusUnprocessableEntity, "UNSUPPORTED_FILE_TYPE")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}
	defer file.Close()

	objectPath := fmt.Sprintf("quotes/%s/%s%s", conversationID, uuid.NewString(), ext)
	storedPath, err := h.storage.Upload(c.Context(), file, objectPath)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "UPLOAD_FAILED")
	}

	return respondCreated(c, fiber.Map{"image_path": storedPath})
}
