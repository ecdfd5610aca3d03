package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/app/controllers"
)

// registerPublicRoutes installs the unauthenticated QR surface. Everything
// under /qr is reachable by anyone holding a scanned link, plus the call
// provider callbacks.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	qr := app.Group("/qr")

	qr.Get("/:qrID", controllers.HandlePublicContactPage)
	qr.Get("/:qrID/code.png", controllers.HandlePublicQRImage)
	qr.Get("/:qrID/scans", controllers.HandlePublicScanCount)
	qr.Post("/:qrID/contact", controllers.HandleContactOwner)

	// Privacy masking flows for scanners
	qr.Post("/:qrID/masked-number", controllers.HandleGetMaskedNumber)
	qr.Post("/:qrID/initiate-call", controllers.HandleInitiateCall)
	qr.Post("/:qrID/terminate-masking", controllers.HandleTerminateMasking)

	// Call provider callbacks; always answer 200
	qr.Post("/:qrID/twilio-connect", controllers.HandleTwilioConnect)
	qr.Post("/:qrID/twilio-status", controllers.HandleTwilioStatus)
}
