package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create records a plan selection
func (r *subscriptionRepository) Create(sub *models.UserSubscription) error {
	return r.db.Create(sub).Error
}

// GetByUserID lists a user's subscription history, newest first
func (r *subscriptionRepository) GetByUserID(userID uint) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	err := r.db.Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

// GetCurrentByUserID returns the active subscription covering now
func (r *subscriptionRepository) GetCurrentByUserID(userID uint, now time.Time) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, models.SUBSCRIPTION_STATUS_ACTIVE, now, now).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
