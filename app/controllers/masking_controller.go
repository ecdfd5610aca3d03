package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/masking"
	"github.com/parkping/ParkPing/internal/pkg/twilio"
)

var (
	maskingService *masking.Service
	maskedCallerID string
)

// InitializeMaskingController wires the masking session manager and the
// caller id shown on bridged calls. Must run before the routes are served.
func InitializeMaskingController(svc *masking.Service, callerID string) {
	maskingService = svc
	maskedCallerID = callerID
}

// lookupScannableVehicle resolves the QR identity from the route and rejects
// deactivated codes. Returns nil after writing the response on failure.
func lookupScannableVehicle(c *fiber.Ctx) *models.Vehicle {
	qrID := c.Params("qrID")
	vehicle, err := repository.GetGlobalFactory().GetVehicleRepository().GetByQRUniqueID(qrID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = notFound(c, "QR code not found")
		} else {
			log.Printf("vehicle lookup failed for qr %s: %v", qrID, err)
			_ = internalError(c, "Failed to look up vehicle")
		}
		return nil
	}
	if !vehicle.IsQRActive {
		_ = notFound(c, "QR code not found")
		return nil
	}
	return vehicle
}

// HandleGetMaskedNumber hands the scanner a masked number for the vehicle's
// contact phone. Repeated scans inside the window return the same session.
func HandleGetMaskedNumber(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	result, err := maskingService.GetOrCreateSession(vehicle, vehicle.User)
	if err != nil {
		return renderMaskingError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"session_id":      result.SessionID,
		"masked_number":   result.MaskedNumber,
		"original_number": result.OriginalNumber,
		"expires_at":      result.ExpiresAt,
		"is_existing":     result.IsExisting,
		"call_count":      result.CallCount,
	})
}

type initiateCallRequest struct {
	PhoneNumber  string `json:"phone_number"`
	OwnerPhoneID *uint  `json:"owner_phone_id"`
}

// HandleInitiateCall bridges the scanner to the owner through the call
// provider without revealing either number.
func HandleInitiateCall(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	var req initiateCallRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PhoneNumber == "" {
		return badRequest(c, "phone_number is required")
	}

	result, err := maskingService.InitiateCall(vehicle, vehicle.User, req.PhoneNumber, req.OwnerPhoneID)
	if err != nil {
		return renderMaskingError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": result.SessionID,
		"call_id":    result.CallSID,
		"status":     result.Status,
		"message":    "Call initiated. The owner's phone will ring shortly.",
	})
}

type terminateMaskingRequest struct {
	SessionID string `json:"session_id"`
}

// HandleTerminateMasking cancels a live masking session early.
func HandleTerminateMasking(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	var req terminateMaskingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.SessionID == "" {
		return badRequest(c, "session_id is required")
	}

	if err := maskingService.Terminate(vehicle, req.SessionID); err != nil {
		return renderMaskingError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Masking session terminated",
		"session_id": req.SessionID,
	})
}

// HandleTwilioConnect serves the TwiML that joins the scanner leg once the
// owner answers. Twilio expects 200 with a voice document no matter what, so
// failures speak a rejection instead of erroring.
func HandleTwilioConnect(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/xml")

	qrID := c.Params("qrID")
	vehicle, err := repository.GetGlobalFactory().GetVehicleRepository().GetByQRUniqueID(qrID)
	if err != nil {
		doc, _ := twilio.RejectTwiML("We could not connect your call. Goodbye.")
		return c.SendString(doc)
	}

	scannerNumber, err := maskingService.ResolveBridgeTarget(vehicle)
	if err != nil {
		doc, _ := twilio.RejectTwiML("No active session was found for this call. Goodbye.")
		return c.SendString(doc)
	}

	doc, err := twilio.ConnectTwiML(scannerNumber, maskedCallerID)
	if err != nil {
		log.Printf("failed to build connect response for qr %s: %v", qrID, err)
		doc, _ = twilio.RejectTwiML("We could not connect your call. Goodbye.")
	}
	return c.SendString(doc)
}

// HandleTwilioStatus records call progress callbacks. Always acknowledges;
// a failed bookkeeping write must not make Twilio retry forever.
func HandleTwilioStatus(c *fiber.Ctx) error {
	callSID := c.FormValue("CallSid")
	callStatus := c.FormValue("CallStatus")

	qrID := c.Params("qrID")
	vehicle, err := repository.GetGlobalFactory().GetVehicleRepository().GetByQRUniqueID(qrID)
	if err == nil {
		maskingService.RecordCallStatus(vehicle, callSID, callStatus)
	} else {
		log.Printf("status callback for unknown qr %s (call %s, status %s)", qrID, callSID, callStatus)
	}

	return c.JSON(fiber.Map{"success": true})
}
