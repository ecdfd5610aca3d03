package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/qr"
	"github.com/parkping/ParkPing/internal/pkg/quota"
	"github.com/parkping/ParkPing/internal/pkg/statistics"
	"github.com/parkping/ParkPing/internal/pkg/usercontext"
)

var quotaEvaluator *quota.Evaluator

// InitializeQuotaEvaluator wires the plan limit checks used by the
// authenticated resource controllers.
func InitializeQuotaEvaluator(ev *quota.Evaluator) {
	quotaEvaluator = ev
}

func renderQuotaDenied(c *fiber.Ctx, decision quota.Decision) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error":         "quota_exceeded",
		"message":       decision.Reason,
		"current_count": decision.CurrentCount,
		"max_allowed":   decision.MaxAllowed,
	})
}

// currentUserWithPlan loads the authenticated user with the plan preloaded
// so quota checks see the current limits.
func currentUserWithPlan(c *fiber.Ctx) (*models.User, error) {
	uc := usercontext.Get(c)
	return repository.GetGlobalFactory().GetUserRepository().GetByIDWithPlan(uc.UserID)
}

// ownVehicle resolves a :id route param to a vehicle owned by the caller.
// Returns nil after writing the response on failure.
func ownVehicle(c *fiber.Ctx) *models.Vehicle {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = badRequest(c, "Invalid vehicle id")
		return nil
	}
	uc := usercontext.Get(c)
	vehicle, err := repository.GetGlobalFactory().GetVehicleRepository().GetByIDAndUserID(uint(id), uc.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = notFound(c, "Vehicle not found")
		} else {
			log.Printf("vehicle lookup failed: %v", err)
			_ = internalError(c, "Failed to look up vehicle")
		}
		return nil
	}
	return vehicle
}

// HandleListVehicles returns the caller's vehicles, newest first.
func HandleListVehicles(c *fiber.Ctx) error {
	uc := usercontext.Get(c)
	vehicles, err := repository.GetGlobalFactory().GetVehicleRepository().GetByUserID(uc.UserID)
	if err != nil {
		log.Printf("failed to list vehicles for user %d: %v", uc.UserID, err)
		return internalError(c, "Failed to list vehicles")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"vehicles": vehicles,
	})
}

type vehicleRequest struct {
	VehicleType        string  `json:"vehicle_type"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	Year               uint    `json:"year"`
	Color              string  `json:"color"`
	LicensePlate       string  `json:"license_plate"`
	VIN                *string `json:"vin"`
	ContactPhoneID     *uint   `json:"contact_phone_id"`
	MaskingEnabled     *bool   `json:"masking_enabled"`
	ShowPhone          *bool   `json:"show_phone"`
	ShowName           *bool   `json:"show_name"`
	ShowEmail          *bool   `json:"show_email"`
	ShowVehicleDetails *bool   `json:"show_vehicle_details"`
	QRColorPrimary     string  `json:"qr_color_primary"`
	QRColorSecondary   string  `json:"qr_color_secondary"`
	QRSize             uint    `json:"qr_size"`
}

// validateContactPhone ensures a chosen contact phone belongs to the caller.
func validateContactPhone(userID uint, phoneID *uint) error {
	if phoneID == nil {
		return nil
	}
	_, err := repository.GetGlobalFactory().GetPhoneNumberRepository().GetByIDAndUserID(*phoneID, userID)
	return err
}

// HandleCreateVehicle registers a vehicle for the caller, subject to the
// plan's vehicle limit.
func HandleCreateVehicle(c *fiber.Ctx) error {
	user, err := currentUserWithPlan(c)
	if err != nil {
		return internalError(c, "Failed to load account")
	}

	if decision := quotaEvaluator.CanCreate(user, quota.ResourceVehicle); !decision.Allowed {
		return renderQuotaDenied(c, decision)
	}

	var req vehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateContactPhone(user.ID, req.ContactPhoneID); err != nil {
		return badRequest(c, "contact_phone_id does not belong to this account")
	}

	vehicle := &models.Vehicle{
		UserID:         user.ID,
		VehicleType:    req.VehicleType,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Color:          req.Color,
		LicensePlate:   strings.ToUpper(strings.TrimSpace(req.LicensePlate)),
		VIN:            req.VIN,
		ContactPhoneID: req.ContactPhoneID,
		IsQRActive:     true,
	}
	if vehicle.VehicleType == "" {
		vehicle.VehicleType = models.VEHICLE_TYPE_CAR
	}
	applyVehicleSettings(vehicle, &req)

	if err := vehicle.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetVehicleRepository().Create(vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "duplicate",
				"message": "A vehicle with this license plate or VIN already exists",
			})
		}
		log.Printf("failed to create vehicle for user %d: %v", user.ID, err)
		return internalError(c, "Failed to create vehicle")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"vehicle": vehicle,
	})
}

func applyVehicleSettings(vehicle *models.Vehicle, req *vehicleRequest) {
	if req.MaskingEnabled != nil {
		vehicle.MaskingEnabled = *req.MaskingEnabled
	}
	if req.ShowPhone != nil {
		vehicle.ShowPhone = *req.ShowPhone
	} else if vehicle.ID == 0 {
		vehicle.ShowPhone = true
	}
	if req.ShowName != nil {
		vehicle.ShowName = *req.ShowName
	}
	if req.ShowEmail != nil {
		vehicle.ShowEmail = *req.ShowEmail
	}
	if req.ShowVehicleDetails != nil {
		vehicle.ShowVehicleDetails = *req.ShowVehicleDetails
	} else if vehicle.ID == 0 {
		vehicle.ShowVehicleDetails = true
	}
	if req.QRColorPrimary != "" {
		vehicle.QRColorPrimary = req.QRColorPrimary
	}
	if req.QRColorSecondary != "" {
		vehicle.QRColorSecondary = req.QRColorSecondary
	}
	if req.QRSize != 0 {
		vehicle.QRSize = req.QRSize
	}
}

// HandleGetVehicle returns one of the caller's vehicles with scan stats.
func HandleGetVehicle(c *fiber.Ctx) error {
	vehicle := ownVehicle(c)
	if vehicle == nil {
		return nil
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"vehicle":    vehicle,
		"public_url": qr.BuildPublicURL(publicBaseURL, vehicle.QRUniqueID),
		"scan_count": statistics.VehicleScans(vehicle.ID),
	})
}

// HandleUpdateVehicle updates a vehicle's details and settings. The QR
// identity is immutable and cannot be changed here.
func HandleUpdateVehicle(c *fiber.Ctx) error {
	vehicle := ownVehicle(c)
	if vehicle == nil {
		return nil
	}

	var req vehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validateContactPhone(vehicle.UserID, req.ContactPhoneID); err != nil {
		return badRequest(c, "contact_phone_id does not belong to this account")
	}

	if req.VehicleType != "" {
		vehicle.VehicleType = req.VehicleType
	}
	if req.Make != "" {
		vehicle.Make = req.Make
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Year != 0 {
		vehicle.Year = req.Year
	}
	if req.Color != "" {
		vehicle.Color = req.Color
	}
	if req.LicensePlate != "" {
		vehicle.LicensePlate = strings.ToUpper(strings.TrimSpace(req.LicensePlate))
	}
	if req.VIN != nil {
		vehicle.VIN = req.VIN
	}
	if req.ContactPhoneID != nil {
		vehicle.ContactPhoneID = req.ContactPhoneID
	}
	applyVehicleSettings(vehicle, &req)

	if err := vehicle.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	if err := repository.GetGlobalFactory().GetVehicleRepository().Update(vehicle); err != nil {
		log.Printf("failed to update vehicle %d: %v", vehicle.ID, err)
		return internalError(c, "Failed to update vehicle")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"vehicle": vehicle,
	})
}

// HandleDeleteVehicle removes a vehicle along with its scans and sessions.
func HandleDeleteVehicle(c *fiber.Ctx) error {
	vehicle := ownVehicle(c)
	if vehicle == nil {
		return nil
	}

	if err := repository.GetGlobalFactory().GetVehicleRepository().Delete(vehicle.ID); err != nil {
		log.Printf("failed to delete vehicle %d: %v", vehicle.ID, err)
		return internalError(c, "Failed to delete vehicle")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Vehicle deleted",
	})
}

// HandleToggleQR flips whether the public QR page answers for this vehicle.
func HandleToggleQR(c *fiber.Ctx) error {
	vehicle := ownVehicle(c)
	if vehicle == nil {
		return nil
	}

	vehicle.IsQRActive = !vehicle.IsQRActive
	if err := repository.GetGlobalFactory().GetVehicleRepository().Update(vehicle); err != nil {
		log.Printf("failed to toggle QR for vehicle %d: %v", vehicle.ID, err)
		return internalError(c, "Failed to update vehicle")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"is_qr_active": vehicle.IsQRActive,
	})
}

// HandleOwnerQRImage renders the QR code PNG for the owner's dashboard.
func HandleOwnerQRImage(c *fiber.Ctx) error {
	vehicle := ownVehicle(c)
	if vehicle == nil {
		return nil
	}

	png, err := qr.Render(vehicle, publicBaseURL)
	if err != nil {
		log.Printf("failed to render QR for vehicle %d: %v", vehicle.ID, err)
		return internalError(c, "Failed to render QR code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// HandleSearchVehicles finds vehicles with active QR codes by license plate
// or QR identity. Useful for parking attendants.
func HandleSearchVehicles(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 3 {
		return badRequest(c, "Query must be at least 3 characters")
	}

	vehicles, err := repository.GetGlobalFactory().GetVehicleRepository().Search(query)
	if err != nil {
		log.Printf("vehicle search failed: %v", err)
		return internalError(c, "Search failed")
	}

	// Public projection only; a search result must not expose owner data.
	results := make([]fiber.Map, 0, len(vehicles))
	for _, v := range vehicles {
		results = append(results, fiber.Map{
			"qr_id":         v.QRUniqueID,
			"license_plate": v.LicensePlate,
			"vehicle_type":  v.VehicleType,
			"make":          v.Make,
			"model":         v.Model,
			"color":         v.Color,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"results": results,
	})
}
