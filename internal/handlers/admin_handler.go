package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

type AdminHandler struct {
	offerRepo *repository.OfferRepository
}

func NewAdminHandler(offerRepo *repository.OfferRepository) *AdminHandler {
	return &AdminHandler{offerRepo: offerRepo}
}

func (h *AdminHandler) ListOffers(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	offers, total, err := h.offerRepo.List(c.Context(), limit, (page-1)*limit)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{
		"offers":     offers,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}
