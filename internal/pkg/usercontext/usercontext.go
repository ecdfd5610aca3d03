package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parkping/ParkPing/app/models"
)

const localsKey = "USER_CONTEXT"

// UserContext carries the authenticated user through a request.
type UserContext struct {
	UserID     uint
	User       *models.User
	IsLoggedIn bool
	IsAdmin    bool
}

// Set stores the user context on the request.
func Set(c *fiber.Ctx, ctx UserContext) {
	c.Locals(localsKey, ctx)
}

// Get returns the user context for the request, or an anonymous one.
func Get(c *fiber.Ctx) UserContext {
	if v := c.Locals(localsKey); v != nil {
		if ctx, ok := v.(UserContext); ok {
			return ctx
		}
	}
	return UserContext{}
}
