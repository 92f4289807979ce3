package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/models"
)

type notificationApplicationService interface {
	ListForUser(ctx context.Context, userID string, page int, limit int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, userID string, notificationID string) error
}

type NotificationHandler struct {
	service notificationApplicationService
}

func NewNotificationHandler(service notificationApplicationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	notifications, total, err := h.service.ListForUser(c.Context(), userID, page, limit)
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}

	return respondOK(c, fiber.Map{
		"notifications": notifications,
		"pagination":    buildPaginationMeta(page, limit, total),
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, ok := authUserID(c)
	if !ok {
		return respondError(c, fiber.StatusUnauthorized, "UNAUTHORIZED")
	}

	if err := h.service.MarkRead(c.Context(), userID, c.Params("id")); err != nil {
		return mapServiceError(c, err, "NOTIFICATION_NOT_FOUND", "NOTIFICATION_UPDATE_FAILED")
	}

	return respondOK(c, fiber.Map{})
}
