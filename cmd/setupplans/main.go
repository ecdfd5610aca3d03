package main

import (
	"log"

	"github.com/parkping/ParkPing/app/models"
	"github.com/parkping/ParkPing/app/repository"
	"github.com/parkping/ParkPing/internal/pkg/database"
	"github.com/parkping/ParkPing/internal/pkg/env"
)

// seedPlans is the plan catalogue created on a fresh installation. Existing
// rows are left untouched so admin edits survive reruns.
var seedPlans = []models.SubscriptionPlan{
	{
		Name:            "Free",
		PlanType:        models.PLAN_TYPE_FREE,
		Description:     "Get started with one vehicle and a basic QR code",
		Price:           0,
		Currency:        "INR",
		BillingCycle:    "monthly",
		MaxVehicles:     1,
		MaxPhoneNumbers: 1,
		IsActive:        true,
	},
	{
		Name:               "Basic",
		PlanType:           models.PLAN_TYPE_BASIC,
		Description:        "Privacy masking and more vehicles for daily commuters",
		Price:              99,
		Currency:           "INR",
		BillingCycle:       "monthly",
		MaxVehicles:        3,
		MaxPhoneNumbers:    2,
		NumberMasking:      true,
		MaxMaskingSessions: 5,
		IsActive:           true,
	},
	{
		Name:               "Pro",
		PlanType:           models.PLAN_TYPE_PRO,
		Description:        "Unlimited masking sessions, custom QR design and analytics",
		Price:              299,
		Currency:           "INR",
		BillingCycle:       "monthly",
		MaxVehicles:        10,
		MaxPhoneNumbers:    5,
		NumberMasking:      true,
		MaxMaskingSessions: 0,
		CustomQRDesign:     true,
		AnalyticsDashboard: true,
		IsActive:           true,
	},
	{
		Name:               "Enterprise",
		PlanType:           models.PLAN_TYPE_ENTERPRISE,
		Description:        "Fleet-scale accounts with branding and priority support",
		Price:              999,
		Currency:           "INR",
		BillingCycle:       "monthly",
		MaxVehicles:        50,
		MaxPhoneNumbers:    20,
		NumberMasking:      true,
		MaxMaskingSessions: 0,
		CustomQRDesign:     true,
		PrioritySupport:    true,
		AnalyticsDashboard: true,
		LogoPlacement:      true,
		CustomBranding:     true,
		IsActive:           true,
	},
}

func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	repo := repository.GetGlobalFactory().GetPlanRepository()

	for i := range seedPlans {
		plan := seedPlans[i]
		created, err := repo.GetOrCreateByType(&plan)
		if err != nil {
			log.Fatalf("Failed to seed plan %s: %v", plan.PlanType, err)
		}
		if created {
			log.Printf("Created plan %s (%s %.0f/%s)", plan.Name, plan.Currency, plan.Price, plan.BillingCycle)
		} else {
			log.Printf("Plan %s already exists, skipping", plan.Name)
		}
	}

	log.Println("Plan setup complete")
}
