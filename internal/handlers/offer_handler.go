package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
	"github.com/hlira-mx/ChambaAppBack/internal/services"
)

type offerApplicationService interface {
	CreateOffer(ctx context.Context, actorID string, input services.CreateOfferInput) (*models.Offer, error)
	GetOffer(ctx context.Context, actorID string, offerID string) (*models.Offer, error)
	AcceptOffer(ctx context.Context, actorID string, offerID string) (*models.Offer, error)
	RejectOffer(ctx context.Context, actorID string, offerID string, reason *string) (*models.Offer, error)
}

type OfferHandler struct {
	service offerApplicationService
}

func NewOfferHandler(service offerApplicationService) *OfferHandler {
	return &OfferHandler{service: service}
}

type createOfferRequest struct {
	ConversationID string  `json:"conversation_id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}

type rejectOfferRequest struct {
	Reason *string `json:"reason"`
}

func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req createOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}
	if req.ConversationID == "" {
		return respondError(c, fiber.StatusBadRequest, "INVALID_INPUT")
	}

	offer, err := h.service.CreateOffer(c.Context(), userID, services.CreateOfferInput{
		ConversationID: req.ConversationID,
		Title:          req.Title,
		Description:    req.Description,
		Amount:         req.Amount,
		Currency:       req.Currency,
	})
	if err != nil {
		return mapServiceError(c, err, "CONVERSATION_NOT_FOUND", "OFFER_UPDATE_FAILED")
	}

	return respondCreated(c, fiber.Map{"offer": offer})
}

func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	offer, err := h.service.GetOffer(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err, "OFFER_NOT_FOUND", "OFFER_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"offer": offer})
}

func (h *OfferHandler) AcceptOffer(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	offer, err := h.service.AcceptOffer(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapServiceError(c, err, "OFFER_NOT_FOUND", "OFFER_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"offer": offer})
}

func (h *OfferHandler) RejectOffer(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	var req rejectOfferRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
		}
	}

	offer, err := h.service.RejectOffer(c.Context(), userID, c.Params("id"), req.Reason)
	if err != nil {
		return mapServiceError(c, err, "OFFER_NOT_FOUND", "OFFER_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{"offer": offer})
}
