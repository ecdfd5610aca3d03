package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new subscription plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new subscription plan
func (r *planRepository) Create(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByType retrieves a plan by its unique plan type
func (r *planRepository) GetByType(planType string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.Where("plan_type = ?", planType).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActive lists active plans ordered by price
func (r *planRepository) GetActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

// Update updates an existing plan
func (r *planRepository) Update(plan *models.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

// GetOrCreateByType creates the plan unless one with the same type exists.
// Used by the setup command; existing rows are left untouched.
func (r *planRepository) GetOrCreateByType(plan *models.SubscriptionPlan) (bool, error) {
	var existing models.SubscriptionPlan
	err := r.db.Where("plan_type = ?", plan.PlanType).First(&existing).Error
	if err == nil {
		*plan = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := r.db.Create(plan).Error; err != nil {
		return false, err
	}
	return true, nil
}
