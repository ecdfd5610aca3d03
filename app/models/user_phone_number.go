package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// UserPhoneNumber stores the contact numbers a user can attach to vehicles.
// At most one number per user carries IsPrimary; the flip is done
// transactionally in the repository, never as a save side effect.
type UserPhoneNumber struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:ux_user_phone_numbers_user_number,unique,priority:1" json:"user_id"`
	User        *User     `json:"-"`
	PhoneNumber string    `gorm:"type:varchar(17);not null;index:ux_user_phone_numbers_user_number,unique,priority:2" json:"phone_number" validate:"required,max=17"`
	IsPrimary   bool      `gorm:"default:false" json:"is_primary"`
	IsVerified  bool      `gorm:"default:false" json:"is_verified"`
	Label       string    `gorm:"type:varchar(50)" json:"label" validate:"max=50"` // e.g., Work, Home, Mobile
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *UserPhoneNumber) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
