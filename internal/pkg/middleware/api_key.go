package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/usercontext"
)

// APIKeyMiddleware resolves the X-API-Key header (or a Bearer token) to a
// user and stores the user context. Unknown keys fall through as anonymous;
// RequireAuth decides whether that is acceptable for a route.
func APIKeyMiddleware(c *fiber.Ctx) error {
	key := strings.TrimSpace(c.Get("X-API-Key"))
	if key == "" {
		auth := c.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}
	if key == "" {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByAPIKeyHash(models.HashAPIKey(key))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_server_error",
				"message": "Failed to resolve API key",
			})
		}
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	usercontext.Set(c, usercontext.UserContext{
		UserID:     user.ID,
		User:       user,
		IsLoggedIn: true,
		IsAdmin:    user.Role == models.ROLE_ADMIN,
	})
	return c.Next()
}

// RequireAuth rejects requests without a resolved user.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.Get(c).IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing or invalid authentication",
		})
	}
	return c.Next()
}
