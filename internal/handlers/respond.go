package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hlira-mx/ChambaAppBack/internal/services"
)

// Every response uses the {ok, ...} envelope; failures carry a stable error
// code string the clients switch on.
func respondOK(c *fiber.Ctx, payload fiber.Map) error {
	body := fiber.Map{"ok": true}
	for key, value := range payload {
		body[key] = value
	}
	return c.JSON(body)
}

func respondCreated(c *fiber.Ctx, payload fiber.Map) error {
	body := fiber.Map{"ok": true}
	for key, value := range payload {
		body[key] = value
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

func respondError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": code})
}

func authUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func authRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "client" && role != "pro") {
		return "", false
	}
	return role, true
}

func mapServiceError(c *fiber.Ctx, err error, notFoundCode string, conflictCode string) error {
	var blocked *services.ContactBlockedError
	switch {
	case errors.As(err, &blocked):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"ok":       false,
			"error":    "CONTACT_BLOCKED",
			"message":  blocked.Message,
			"findings": blocked.Findings,
		})
	case errors.Is(err, services.ErrOnlyProCanQuote):
		return respondError(c, fiber.StatusForbidden, "ONLY_PRO_CAN_QUOTE")
	case errors.Is(err, services.ErrForbidden):
		return respondError(c, fiber.StatusForbidden, "FORBIDDEN")
	case errors.Is(err, services.ErrNotFound):
		return respondError(c, fiber.StatusNotFound, notFoundCode)
	case errors.Is(err, services.ErrInvalidStatus):
		return respondError(c, fiber.StatusConflict, "INVALID_STATUS")
	case errors.Is(err, services.ErrUpdateConflict):
		return respondError(c, fiber.StatusConflict, conflictCode)
	case errors.Is(err, services.ErrInvalidInput):
		return respondError(c, fiber.StatusBadRequest, "INVALID_INPUT")
	default:
		return respondError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}
}
