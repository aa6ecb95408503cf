package handlers

import (
	"log"

	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a business error kind to its HTTP status
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation, services.KindConflict:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

// respondError converts a service error into a JSON response. Anything that
// is not a business error is logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	svcErr, ok := services.AsError(err)
	if !ok {
		log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	body := fiber.Map{"error": svcErr.Message}
	details := fiber.Map{}
	for key, value := range svcErr.Details {
		if key == "fields" {
			body["fields"] = value
			continue
		}
		details[key] = value
	}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.Status(statusFor(svcErr.Kind)).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": message,
	})
}
