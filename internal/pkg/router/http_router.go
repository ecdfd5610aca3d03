package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/app/controllers"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/groq"
	"github.com/parkping/ParkPing/internal/pkg/masking"
	"github.com/parkping/ParkPing/internal/pkg/quota"
	"github.com/parkping/ParkPing/internal/pkg/twilio"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	factory := repository.GetGlobalFactory()

	evaluator := quota.NewEvaluator(
		factory.GetVehicleRepository(),
		factory.GetPhoneNumberRepository(),
		factory.GetMaskingSessionRepository(),
	)
	controllers.InitializeQuotaEvaluator(evaluator)

	maskingCfg := masking.ConfigFromEnv()
	twilioClient := twilio.NewClient(twilio.ConfigFromEnv())
	maskingService := masking.NewService(
		maskingCfg,
		factory.GetMaskingSessionRepository(),
		factory.GetPhoneNumberRepository(),
		evaluator,
		twilioClient,
	)
	controllers.InitializeMaskingController(maskingService, twilioClient.CallerID())
	controllers.InitializePublicController(maskingCfg.PublicBaseURL)
	controllers.InitializeChatbotController(groq.NewClient(groq.ConfigFromEnv()))

	h.registerPublicRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
