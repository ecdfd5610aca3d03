package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and returns its API key. The key is
// shown exactly once; only its hash is stored.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := models.CreateUser(req.Name, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return badRequest(c, err.Error())
	}

	apiKey, err := user.GenerateAPIKey()
	if err != nil {
		log.Printf("failed to generate API key: %v", err)
		return internalError(c, "Failed to create account")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "duplicate",
				"message": "An account with this email already exists",
			})
		}
		log.Printf("failed to create user: %v", err)
		return internalError(c, "Failed to create account")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"api_key": apiKey,
		"message": "Store the API key now; it cannot be retrieved again",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies the credentials and rotates the API key. The old key
// stops working immediately.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Invalid email or password",
		})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "account_disabled",
			"message": "This account is not active",
		})
	}

	apiKey, err := user.GenerateAPIKey()
	if err != nil {
		log.Printf("failed to rotate API key for user %d: %v", user.ID, err)
		return internalError(c, "Failed to log in")
	}
	now := time.Now()
	user.LastLoginAt = &now

	if err := repo.Update(user); err != nil {
		log.Printf("failed to update user %d on login: %v", user.ID, err)
		return internalError(c, "Failed to log in")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"api_key": apiKey,
	})
}

// HandleGetProfile returns the caller's account with plan details.
func HandleGetProfile(c *fiber.Ctx) error {
	user, err := currentUserWithPlan(c)
	if err != nil {
		return internalError(c, "Failed to load account")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
