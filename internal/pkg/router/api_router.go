package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/parkping/ParkPing/app/controllers"
	"github.com/parkping/ParkPing/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(), middleware.APIKeyMiddleware)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "ParkPing API",
		})
	})

	v1 := api.Group("/v1")

	// Account
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Get("/profile", middleware.RequireAuth, controllers.HandleGetProfile)

	// Plans
	v1.Get("/plans", controllers.HandleListPlans)
	v1.Post("/plans/select", middleware.RequireAuth, controllers.HandleSelectPlan)
	v1.Get("/plans/current", middleware.RequireAuth, controllers.HandleCurrentPlan)
	v1.Get("/subscriptions", middleware.RequireAuth, controllers.HandleSubscriptionHistory)

	// Vehicles
	vehicles := v1.Group("/vehicles", middleware.RequireAuth)
	vehicles.Get("/", controllers.HandleListVehicles)
	vehicles.Post("/", controllers.HandleCreateVehicle)
	vehicles.Get("/search", controllers.HandleSearchVehicles)
	vehicles.Get("/:id", controllers.HandleGetVehicle)
	vehicles.Put("/:id", controllers.HandleUpdateVehicle)
	vehicles.Delete("/:id", controllers.HandleDeleteVehicle)
	vehicles.Post("/:id/toggle-qr", controllers.HandleToggleQR)
	vehicles.Get("/:id/qr.png", controllers.HandleOwnerQRImage)

	// Phone numbers
	phones := v1.Group("/phone-numbers", middleware.RequireAuth)
	phones.Get("/", controllers.HandleListPhoneNumbers)
	phones.Post("/", controllers.HandleCreatePhoneNumber)
	phones.Put("/:id", controllers.HandleUpdatePhoneNumber)
	phones.Post("/:id/set-primary", controllers.HandleSetPrimaryPhoneNumber)
	phones.Delete("/:id", controllers.HandleDeletePhoneNumber)

	// Parking sessions
	parking := v1.Group("/parking-sessions", middleware.RequireAuth)
	parking.Get("/", controllers.HandleListParkingSessions)
	parking.Post("/", controllers.HandleStartParking)
	parking.Post("/:id/end", controllers.HandleEndParking)

	// Help chatbot
	v1.Post("/chatbot", controllers.HandleChatMessage)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
