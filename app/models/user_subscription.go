package models

import "time"

const (
	SUBSCRIPTION_STATUS_ACTIVE    = "active"
	SUBSCRIPTION_STATUS_EXPIRED   = "expired"
	SUBSCRIPTION_STATUS_CANCELLED = "cancelled"
	SUBSCRIPTION_STATUS_PENDING   = "pending"
)

// UserSubscription keeps the history of plan selections per user.
type UserSubscription struct {
	ID     uint              `gorm:"primaryKey" json:"id"`
	UserID uint              `gorm:"not null;index" json:"user_id"`
	User   *User             `json:"-"`
	PlanID uint              `gorm:"not null;index" json:"plan_id"`
	Plan   *SubscriptionPlan `json:"plan,omitempty"`
	Status string            `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Billing information
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	EndDate       time.Time `gorm:"not null" json:"end_date"`
	AmountPaid    float64   `gorm:"type:decimal(10,2)" json:"amount_paid"`
	PaymentMethod string    `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID string    `gorm:"type:varchar(100)" json:"transaction_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsCurrent reports whether the subscription window covers the given instant.
func (s *UserSubscription) IsCurrent(now time.Time) bool {
	return s.Status == SUBSCRIPTION_STATUS_ACTIVE && !now.Before(s.StartDate) && !now.After(s.EndDate)
}
