package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/usercontext"
)

// HandleListPlans returns the active plan catalogue. Public.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetPlanRepository().GetActive()
	if err != nil {
		log.Printf("failed to list plans: %v", err)
		return internalError(c, "Failed to list plans")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"plans":   plans,
	})
}

type selectPlanRequest struct {
	PlanType      string `json:"plan_type"`
	PaymentMethod string `json:"payment_method"`
	TransactionID string `json:"transaction_id"`
}

// HandleSelectPlan assigns a plan to the caller and records the subscription
// window. Payment verification happens upstream; this only books the result.
func HandleSelectPlan(c *fiber.Ctx) error {
	uc := usercontext.Get(c)

	var req selectPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PlanType == "" {
		return badRequest(c, "plan_type is required")
	}

	factory := repository.GetGlobalFactory()

	plan, err := factory.GetPlanRepository().GetByType(req.PlanType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Plan not found")
		}
		log.Printf("failed to load plan %s: %v", req.PlanType, err)
		return internalError(c, "Failed to load plan")
	}
	if !plan.IsActive {
		return notFound(c, "Plan not found")
	}

	start := time.Now()
	end := start.AddDate(0, 1, 0)
	if plan.BillingCycle == "yearly" {
		end = start.AddDate(1, 0, 0)
	}

	if err := factory.GetUserRepository().AssignPlan(uc.UserID, plan.ID, start, end); err != nil {
		log.Printf("failed to assign plan %d to user %d: %v", plan.ID, uc.UserID, err)
		return internalError(c, "Failed to select plan")
	}

	sub := &models.UserSubscription{
		UserID:        uc.UserID,
		PlanID:        plan.ID,
		Status:        models.SUBSCRIPTION_STATUS_ACTIVE,
		StartDate:     start,
		EndDate:       end,
		AmountPaid:    plan.Price,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	}
	if err := factory.GetSubscriptionRepository().Create(sub); err != nil {
		// The plan is assigned; losing the history row is logged, not fatal.
		log.Printf("failed to record subscription for user %d: %v", uc.UserID, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"plan":        plan,
		"valid_until": end,
	})
}

// HandleCurrentPlan returns the caller's plan and subscription window.
func HandleCurrentPlan(c *fiber.Ctx) error {
	user, err := currentUserWithPlan(c)
	if err != nil {
		return internalError(c, "Failed to load account")
	}

	if !user.HasPlan() {
		return c.JSON(fiber.Map{
			"success": true,
			"plan":    nil,
			"message": "No plan selected",
		})
	}

	return c.JSON(fiber.Map{
		"success":                true,
		"plan":                   user.CurrentPlan,
		"subscription_start":     user.SubscriptionStartDate,
		"subscription_end":       user.SubscriptionEndDate,
		"is_subscription_active": user.IsSubscriptionActive,
	})
}

// HandleSubscriptionHistory lists the caller's past plan selections.
func HandleSubscriptionHistory(c *fiber.Ctx) error {
	uc := usercontext.Get(c)
	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByUserID(uc.UserID)
	if err != nil {
		log.Printf("failed to list subscriptions for user %d: %v", uc.UserID, err)
		return internalError(c, "Failed to list subscriptions")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"subscriptions": subs,
	})
}
