package controllers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/env"
	"github.com/parkping/ParkPing/internal/pkg/mail"
	"github.com/parkping/ParkPing/internal/pkg/qr"
	"github.com/parkping/ParkPing/internal/pkg/statistics"
)

// emergencyNumbers are shown on every public contact page so a scanner can
// escalate even when the owner is unreachable.
var emergencyNumbers = []fiber.Map{
	{"name": "Police", "number": "100"},
	{"name": "Fire", "number": "101"},
	{"name": "Ambulance", "number": "102"},
}

var publicBaseURL string

// InitializePublicController sets the base URL embedded into rendered QR
// codes. Must run before the routes are served.
func InitializePublicController(baseURL string) {
	publicBaseURL = baseURL
}

// recordScan persists the scan row, bumps the cached counters and notifies
// the owner. Runs in the background; a scan record must never slow down or
// fail the page.
func recordScan(vehicle *models.Vehicle, ip, userAgent string, lat, lng *float64) {
	go func() {
		scan := &models.QRCodeScan{
			VehicleID:          vehicle.ID,
			ScannedByIP:        ip,
			ScannedByUserAgent: userAgent,
			LocationLat:        lat,
			LocationLng:        lng,
		}
		if err := repository.GetGlobalFactory().GetScanRepository().Create(scan); err != nil {
			log.Printf("failed to record scan for vehicle %d: %v", vehicle.ID, err)
			return
		}
		statistics.RecordScan(vehicle.ID)
		if vehicle.User != nil {
			mail.NotifyVehicleScanned(vehicle.User.Email, vehicle.DisplayName())
		}
	}()
}

func parseCoord(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// HandlePublicContactPage serves the data behind a scanned QR code: the
// owner's contact projection filtered by the visibility flags, plus the
// emergency numbers. Every hit is recorded.
func HandlePublicContactPage(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	recordScan(vehicle, GetClientIP(c), c.Get(fiber.HeaderUserAgent),
		parseCoord(c.Query("lat")), parseCoord(c.Query("lng")))

	info := vehicle.GetContactInfo(vehicle.User, vehicle.ContactPhone)
	if vehicle.MaskingEnabled {
		// Never leak the real number when masking is on; the scanner goes
		// through the masked-number or initiate-call flows instead.
		info.Phone = ""
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"qr_id":             vehicle.QRUniqueID,
		"contact":           info,
		"masking_enabled":   vehicle.MaskingEnabled,
		"helpline_number":   env.GetEnv("HELPLINE_NUMBER", ""),
		"emergency_numbers": emergencyNumbers,
	})
}

type contactOwnerRequest struct {
	Reason        string `json:"reason"`
	Message       string `json:"message"`
	ContactMethod string `json:"contact_method"`
}

// HandleContactOwner forwards a free-form contact request from a scanner to
// the vehicle owner. The scanner never learns whether the owner was actually
// reachable.
func HandleContactOwner(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	var req contactOwnerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return badRequest(c, "A reason is required")
	}
	if req.ContactMethod == "" {
		req.ContactMethod = "call"
	}

	if vehicle.User != nil {
		go mail.NotifyContactRequest(vehicle.User.Email, vehicle.DisplayName(), req.Reason, req.Message)
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Contact request sent successfully",
		"qr_id":          vehicle.QRUniqueID,
		"contact_method": req.ContactMethod,
	})
}

// HandlePublicQRImage renders the vehicle's QR code as PNG with its stored
// styling.
func HandlePublicQRImage(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
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

// HandlePublicScanCount exposes the cached scan counter for one QR code.
func HandlePublicScanCount(c *fiber.Ctx) error {
	vehicle := lookupScannableVehicle(c)
	if vehicle == nil {
		return nil
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"qr_id":       vehicle.QRUniqueID,
		"scan_count":  statistics.VehicleScans(vehicle.ID),
		"scans_today": statistics.TodayScans(),
	})
}
