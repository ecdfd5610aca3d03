package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/phone"
	"github.com/parkping/ParkPing/internal/pkg/quota"
	"github.com/parkping/ParkPing/internal/pkg/usercontext"
)

// HandleListPhoneNumbers returns the caller's contact numbers.
func HandleListPhoneNumbers(c *fiber.Ctx) error {
	uc := usercontext.Get(c)
	phones, err := repository.GetGlobalFactory().GetPhoneNumberRepository().GetByUserID(uc.UserID)
	if err != nil {
		log.Printf("failed to list phone numbers for user %d: %v", uc.UserID, err)
		return internalError(c, "Failed to list phone numbers")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"phone_numbers": phones,
	})
}

type phoneNumberRequest struct {
	PhoneNumber string `json:"phone_number"`
	Label       string `json:"label"`
	IsPrimary   bool   `json:"is_primary"`
}

// HandleCreatePhoneNumber adds a contact number for the caller, subject to
// the plan's phone number limit. The number is normalized before storage so
// duplicates in different formats collapse onto the unique index.
func HandleCreatePhoneNumber(c *fiber.Ctx) error {
	user, err := currentUserWithPlan(c)
	if err != nil {
		return internalError(c, "Failed to load account")
	}

	if decision := quotaEvaluator.CanCreate(user, quota.ResourcePhoneNumber); !decision.Allowed {
		return renderQuotaDenied(c, decision)
	}

	var req phoneNumberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !phone.IsValid(req.PhoneNumber) {
		return badRequest(c, "Invalid phone number")
	}

	repo := repository.GetGlobalFactory().GetPhoneNumberRepository()

	count, err := repo.CountByUserID(user.ID)
	if err != nil {
		log.Printf("failed to count phone numbers for user %d: %v", user.ID, err)
		return internalError(c, "Failed to create phone number")
	}

	record := &models.UserPhoneNumber{
		UserID:      user.ID,
		PhoneNumber: phone.Normalize(req.PhoneNumber),
		Label:       req.Label,
		// The first number is always primary.
		IsPrimary: count == 0,
	}
	if err := record.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := repo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "duplicate",
				"message": "This phone number is already on your account",
			})
		}
		log.Printf("failed to create phone number for user %d: %v", user.ID, err)
		return internalError(c, "Failed to create phone number")
	}

	if req.IsPrimary && !record.IsPrimary {
		if err := repo.SetPrimary(user.ID, record.ID); err != nil {
			log.Printf("failed to set primary phone %d for user %d: %v", record.ID, user.ID, err)
		} else {
			record.IsPrimary = true
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"phone_number": record,
	})
}

// ownPhoneNumber resolves a :id route param to a number owned by the caller.
// Returns nil after writing the response on failure.
func ownPhoneNumber(c *fiber.Ctx) *models.UserPhoneNumber {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = badRequest(c, "Invalid phone number id")
		return nil
	}
	uc := usercontext.Get(c)
	record, err := repository.GetGlobalFactory().GetPhoneNumberRepository().GetByIDAndUserID(uint(id), uc.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = notFound(c, "Phone number not found")
		} else {
			log.Printf("phone number lookup failed: %v", err)
			_ = internalError(c, "Failed to look up phone number")
		}
		return nil
	}
	return record
}

// HandleUpdatePhoneNumber changes a number's label or value.
func HandleUpdatePhoneNumber(c *fiber.Ctx) error {
	record := ownPhoneNumber(c)
	if record == nil {
		return nil
	}

	var req phoneNumberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.PhoneNumber != "" {
		if !phone.IsValid(req.PhoneNumber) {
			return badRequest(c, "Invalid phone number")
		}
		record.PhoneNumber = phone.Normalize(req.PhoneNumber)
		record.IsVerified = false
	}
	if req.Label != "" {
		record.Label = req.Label
	}

	if err := repository.GetGlobalFactory().GetPhoneNumberRepository().Update(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "duplicate",
				"message": "This phone number is already on your account",
			})
		}
		log.Printf("failed to update phone number %d: %v", record.ID, err)
		return internalError(c, "Failed to update phone number")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"phone_number": record,
	})
}

// HandleSetPrimaryPhoneNumber makes this number the default contact target.
func HandleSetPrimaryPhoneNumber(c *fiber.Ctx) error {
	record := ownPhoneNumber(c)
	if record == nil {
		return nil
	}

	if err := repository.GetGlobalFactory().GetPhoneNumberRepository().SetPrimary(record.UserID, record.ID); err != nil {
		log.Printf("failed to set primary phone %d: %v", record.ID, err)
		return internalError(c, "Failed to set primary phone number")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Primary phone number updated",
	})
}

// HandleDeletePhoneNumber removes a contact number. The primary number can
// only go once another number has taken over.
func HandleDeletePhoneNumber(c *fiber.Ctx) error {
	record := ownPhoneNumber(c)
	if record == nil {
		return nil
	}

	repo := repository.GetGlobalFactory().GetPhoneNumberRepository()

	if record.IsPrimary {
		count, err := repo.CountByUserID(record.UserID)
		if err != nil {
			return internalError(c, "Failed to delete phone number")
		}
		if count > 1 {
			return badRequest(c, "Set another number as primary before deleting this one")
		}
	}

	if err := repo.Delete(record.ID); err != nil {
		log.Printf("failed to delete phone number %d: %v", record.ID, err)
		return internalError(c, "Failed to delete phone number")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Phone number deleted",
	})
}
