package validation

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizenvoice/citizenvoice-api/pkg/models"
)

// Respond writes a 400 with the per-field messages inside the standard envelope.
func Respond(c *fiber.Ctx, errs map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.Envelope{
		Success: false,
		Message: "Validation failed",
		Error:   "VALIDATION",
		Errors:  errs,
	})
}
