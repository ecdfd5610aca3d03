package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/internal/pkg/masking"
)

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	return c.IP()
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":   "not_found",
		"message": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "validation_error",
		"message": message,
	})
}

func internalError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "internal_server_error",
		"message": message,
	})
}

// renderMaskingError translates a masking service failure to its HTTP shape.
func renderMaskingError(c *fiber.Ctx, err error) error {
	var quotaErr *masking.QuotaError
	var callErr *masking.CallError

	switch {
	case errors.As(err, &quotaErr):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":         "quota_exceeded",
			"message":       quotaErr.Decision.Reason,
			"current_count": quotaErr.Decision.CurrentCount,
			"max_allowed":   quotaErr.Decision.MaxAllowed,
		})
	case errors.As(err, &callErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":      "call_initiation_failed",
			"message":    callErr.Err.Error(),
			"session_id": callErr.SessionID,
		})
	case errors.Is(err, masking.ErrMaskingDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "masking_disabled",
			"message": err.Error(),
		})
	case errors.Is(err, masking.ErrInvalidPhone):
		return badRequest(c, err.Error())
	case errors.Is(err, masking.ErrNoContactNumber),
		errors.Is(err, masking.ErrSessionNotFound),
		errors.Is(err, masking.ErrNoActiveSession):
		return notFound(c, err.Error())
	case errors.Is(err, masking.ErrConfiguration):
		// Operator misconfiguration, not user error.
		log.Printf("ERROR masking configuration: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "configuration_error",
			"message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(c, "Record not found")
	default:
		log.Printf("masking: unexpected error: %v", err)
		return internalError(c, "Unexpected error")
	}
}
