package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type paymentLookup interface {
	PaymentInfo(ctx context.Context, paymentID int) (status string, externalReference string, err error)
}

type offerPayer interface {
	MarkOfferPaid(ctx context.Context, offerID string) (*models.Offer, error)
}

type depositPayer interface {
	MarkDepositPaid(ctx context.Context, requestID string) (*models.OnsiteQuoteRequest, error)
}

// PaymentWebhookHandler receives provider notifications. The provider retries
// on non-2xx, so every outcome answers 200 and failures are only logged; the
// conditional updates downstream keep replays harmless.
type PaymentWebhookHandler struct {
	payments paymentLookup
	offers   offerPayer
	onsite   depositPayer
}

func NewPaymentWebhookHandler(payments paymentLookup, offers offerPayer, onsite depositPayer) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		payments: payments,
		offers:   offers,
		onsite:   onsite,
	}
}

type webhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (h *PaymentWebhookHandler) Handle(c *fiber.Ctx) error {
	var notification webhookNotification
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &notification); err != nil {
			log.Printf("payment webhook: malformed body: %v", err)
			return respondOK(c, fiber.Map{})
		}
	}
	if notification.Type == "" {
		notification.Type = c.Query("type", c.Query("topic"))
	}
	if notification.Data.ID == "" {
		notification.Data.ID = c.Query("data.id", c.Query("id"))
	}

	if notification.Type != "payment" || notification.Data.ID == "" {
		return respondOK(c, fiber.Map{})
	}

	paymentID, err := strconv.Atoi(notification.Data.ID)
	if err != nil {
		log.Printf("payment webhook: non-numeric payment id %q", notification.Data.ID)
		return respondOK(c, fiber.Map{})
	}

	if h.payments == nil {
		log.Printf("payment webhook: payment lookup not configured")
		return respondOK(c, fiber.Map{})
	}

	status, externalReference, err := h.payments.PaymentInfo(c.Context(), paymentID)
	if err != nil {
		log.Printf("payment webhook: lookup payment %d: %v", paymentID, err)
		return respondOK(c, fiber.Map{})
	}
	if status != "approved" {
		return respondOK(c, fiber.Map{})
	}

	switch {
	case strings.HasPrefix(externalReference, "offer:"):
		offerID := strings.TrimPrefix(externalReference, "offer:")
		if _, err := h.offers.MarkOfferPaid(c.Context(), offerID); err != nil {
			log.Printf("payment webhook: mark offer %s paid: %v", offerID, err)
		}
	case strings.HasPrefix(externalReference, "onsite:"):
		requestID := strings.TrimPrefix(externalReference, "onsite:")
		if _, err := h.onsite.MarkDepositPaid(c.Context(), requestID); err != nil {
			log.Printf("payment webhook: mark deposit %s paid: %v", requestID, err)
		}
	default:
		log.Printf("payment webhook: unknown external reference %q", externalReference)
	}

	return respondOK(c, fiber.Map{})
}
