package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AdminOnly gates routes behind a static email allow-list. Runs after
// AuthRequired so the email local is already set from the token claims.
func AdminOnly(adminEmails []string) fiber.Handler {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		email, ok := c.Locals("email").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok":    false,
				"error": "FORBIDDEN",
			})
		}
		if _, ok := allowed[strings.ToLower(email)]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok":    false,
				"error": "FORBIDDEN",
			})
		}
		return c.Next()
	}
}
