package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type onsiteQuoteApplicationService interface {
	CreateRequest(ctx context.Context, actorID string, conversationID string, depositAmount float64) (*models.OnsiteQuoteRequest, error)
	DepositCheckoutURL(ctx context.Context, actorID string, requestID string) (string, error)
	Accept(ctx context.Context, actorID string, requestID string) (*models.OnsiteQuoteRequest, error)
	Reject(ctx context.Context, actorID string, requestID string, reason string, description *string) (*models.OnsiteQuoteRequest, error)
}

type OnsiteQuoteHandler struct {
	service onsiteQuoteApplicationService
}

func NewOnsiteQuoteHandler(service onsiteQuoteApplicationService) *OnsiteQuoteHandler {
	return &OnsiteQuoteHandler{service: service}
}

type createOnsiteQuoteRequest struct {
	ConversationID string  `json:"conversation_id"`
	DepositAmount  float64 `json:"deposit_amount"`
}

type rejectOnsiteQuoteRequest struct {
	Reason      string  `json:"reason"`
	Description *string `json:"description"`
}

func (h *OnsiteQuoteHandler) Create(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req createOnsiteQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	request, err := h.service.CreateRequest(c.Context(), userID, req.ConversationID, req.DepositAmount)
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "ONSITE_QUOTE_UPDATE_FAILED")
	}

	return respondCreated(c, fiber.Map{"request": request})
}

func (h *OnsiteQuoteHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	url, err := h.service.DepositCheckoutURL(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err, "ONSITE_QUOTE_NOT_FOUND", "ONSITE_QUOTE_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"url": url})
}

func (h *OnsiteQuoteHandler) Accept(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	request, err := h.service.Accept(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err, "ONSITE_QUOTE_NOT_FOUND", "ONSITE_QUOTE_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"request": request})
}

func (h *OnsiteQuoteHandler) Reject(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req rejectOnsiteQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}

	request, err := h.service.Reject(c.Context(), userID, c.Params("id"), req.Reason, req.Description)
	if err != nil {
		return mapServiceError(c, err, "ONSITE_QUOTE_NOT_FOUND", "ONSITE_QUOTE_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"request": request})
}
