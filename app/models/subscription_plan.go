package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PLAN_TYPE_FREE       = "free"
	PLAN_TYPE_BASIC      = "basic"
	PLAN_TYPE_PRO        = "pro"
	PLAN_TYPE_ENTERPRISE = "enterprise"
)

// SubscriptionPlan is the static plan catalogue. Rows are created at setup
// time (cmd/setupplans), read on almost every request and only changed through
// explicit admin edits.
type SubscriptionPlan struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	PlanType     string  `gorm:"type:varchar(20);not null;uniqueIndex" json:"plan_type" validate:"oneof=free basic pro enterprise"`
	Description  string  `gorm:"type:text" json:"description"`
	Price        float64 `gorm:"type:decimal(10,2);default:0.00" json:"price" validate:"gte=0"`
	Currency     string  `gorm:"type:varchar(3);default:'USD'" json:"currency" validate:"len=3"`
	BillingCycle string  `gorm:"type:varchar(20);default:'monthly'" json:"billing_cycle"`

	// Feature limits
	MaxVehicles     uint `gorm:"default:1" json:"max_vehicles"`
	MaxPhoneNumbers uint `gorm:"default:1" json:"max_phone_numbers"`
	NumberMasking   bool `gorm:"default:false" json:"number_masking"`
	// MaxMaskingSessions == 0 means "no cap" for plans with masking enabled.
	// Deliberate convention, pinned by tests in internal/pkg/quota.
	MaxMaskingSessions uint `gorm:"default:0" json:"max_masking_sessions"`
	CustomQRDesign     bool `gorm:"default:false" json:"custom_qr_design"`
	PrioritySupport    bool `gorm:"default:false" json:"priority_support"`
	AnalyticsDashboard bool `gorm:"default:false" json:"analytics_dashboard"`

	// Customization options
	QRColorPrimary   string `gorm:"type:varchar(7);default:'#000000'" json:"qr_color_primary"`
	QRColorSecondary string `gorm:"type:varchar(7);default:'#FFFFFF'" json:"qr_color_secondary"`
	LogoPlacement    bool   `gorm:"default:false" json:"logo_placement"`
	CustomBranding   bool   `gorm:"default:false" json:"custom_branding"`

	// Plan status
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *SubscriptionPlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// Features returns the boolean feature flags of the plan keyed by name.
func (p *SubscriptionPlan) Features() map[string]bool {
	return map[string]bool{
		"number_masking":      p.NumberMasking,
		"custom_qr_design":    p.CustomQRDesign,
		"priority_support":    p.PrioritySupport,
		"analytics_dashboard": p.AnalyticsDashboard,
		"logo_placement":      p.LogoPlacement,
		"custom_branding":     p.CustomBranding,
	}
}

// HasFeature reports whether the named feature flag is enabled on the plan.
func (p *SubscriptionPlan) HasFeature(name string) bool {
	return p.Features()[name]
}
