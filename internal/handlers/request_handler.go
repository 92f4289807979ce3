package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/hlira-mx/ChambaAppBack/internal/repository"
)

type RequestHandler struct {
	requestRepo *repository.ServiceRequestRepository
}

func NewRequestHandler(requestRepo *repository.ServiceRequestRepository) *RequestHandler {
	return &RequestHandler{requestRepo: requestRepo}
}

type createServiceRequest struct {
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	City        *string `json:"city"`
}

func (h *RequestHandler) Create(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}
	role, ok := authRole(c)
	if !ok || role != "client" {
		return respondError(c, fiber.StatusForbidden, "FORBIDDEN")
	}

	var req createServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "INVALID_BODY")
	}
	req.Category = strings.TrimSpace(req.Category)
	req.Title = strings.TrimSpace(req.Title)
	if req.Category == "" || req.Title == "" {
		return respondError(c, fiber.StatusBadRequest, "INVALID_INPUT")
	}

	request, err := h.requestRepo.Create(c.Context(), repository.CreateServiceRequestInput{
		ClientID:    userID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
	})
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondCreated(c, fiber.Map{"request": request})
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	if _, ok := authUserID(c); !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	request, err := h.requestRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return respondError(c, fiber.StatusNotFound, "REQUEST_NOT_FOUND")
		}
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{"request": request})
}

func (h *RequestHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	requests, err := h.requestRepo.ListByClient(c.Context(), userID)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{"requests": requests})
}
