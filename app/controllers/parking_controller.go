package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/usercontext"
)

// HandleListParkingSessions returns the caller's parking history.
func HandleListParkingSessions(c *fiber.Ctx) error {
	uc := usercontext.Get(c)
	sessions, err := repository.GetGlobalFactory().GetParkingSessionRepository().GetByUserID(uc.UserID)
	if err != nil {
		log.Printf("failed to list parking sessions for user %d: %v", uc.UserID, err)
		return internalError(c, "Failed to list parking sessions")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": sessions,
	})
}

type startParkingRequest struct {
	VehicleID       uint     `json:"vehicle_id"`
	LocationName    string   `json:"location_name"`
	LocationAddress string   `json:"location_address"`
	LocationLat     *float64 `json:"location_lat"`
	LocationLng     *float64 `json:"location_lng"`
	Notes           string   `json:"notes"`
}

// HandleStartParking opens a parking session for one of the caller's
// vehicles. Any still-open session on the vehicle is completed first.
func HandleStartParking(c *fiber.Ctx) error {
	uc := usercontext.Get(c)

	var req startParkingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.VehicleID == 0 {
		return badRequest(c, "vehicle_id is required")
	}

	factory := repository.GetGlobalFactory()

	if _, err := factory.GetVehicleRepository().GetByIDAndUserID(req.VehicleID, uc.UserID); err != nil {
		return notFound(c, "Vehicle not found")
	}

	repo := factory.GetParkingSessionRepository()

	open, err := repo.GetActiveByVehicleID(req.VehicleID)
	if err != nil {
		log.Printf("failed to check open parking sessions for vehicle %d: %v", req.VehicleID, err)
		return internalError(c, "Failed to start parking session")
	}
	now := time.Now()
	for i := range open {
		open[i].Status = models.PARKING_STATUS_COMPLETED
		open[i].EndTime = &now
		if err := repo.Update(&open[i]); err != nil {
			log.Printf("failed to close parking session %d: %v", open[i].ID, err)
		}
	}

	session := &models.ParkingSession{
		VehicleID:       req.VehicleID,
		Status:          models.PARKING_STATUS_ACTIVE,
		StartTime:       now,
		LocationName:    req.LocationName,
		LocationAddress: req.LocationAddress,
		LocationLat:     req.LocationLat,
		LocationLng:     req.LocationLng,
		Notes:           req.Notes,
	}
	if err := repo.Create(session); err != nil {
		log.Printf("failed to start parking session for vehicle %d: %v", req.VehicleID, err)
		return internalError(c, "Failed to start parking session")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"session": session,
	})
}

// HandleEndParking completes a parking session.
func HandleEndParking(c *fiber.Ctx) error {
	uc := usercontext.Get(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return badRequest(c, "Invalid session id")
	}

	factory := repository.GetGlobalFactory()
	repo := factory.GetParkingSessionRepository()

	session, err := repo.GetByID(uint(id))
	if err != nil {
		return notFound(c, "Parking session not found")
	}
	if _, err := factory.GetVehicleRepository().GetByIDAndUserID(session.VehicleID, uc.UserID); err != nil {
		return notFound(c, "Parking session not found")
	}
	if session.Status != models.PARKING_STATUS_ACTIVE {
		return badRequest(c, "Parking session is not active")
	}

	now := time.Now()
	session.Status = models.PARKING_STATUS_COMPLETED
	session.EndTime = &now
	if err := repo.Update(session); err != nil {
		log.Printf("failed to end parking session %d: %v", session.ID, err)
		return internalError(c, "Failed to end parking session")
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"session":          session,
		"duration_minutes": int(session.Duration().Minutes()),
	})
}
