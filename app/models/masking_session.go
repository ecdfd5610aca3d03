package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MASKING_STATUS_ACTIVE    = "active"
	MASKING_STATUS_EXPIRED   = "expired"
	MASKING_STATUS_CANCELLED = "cancelled"
)

// Masking session modes. A "masked" session hands a generated substitute
// number to the scanner; a "bridge" session pairs the scanner's own number
// with the owner's for a provider-connected call. Keeping the two numbers in
// separate columns avoids overloading one field with both meanings.
const (
	MASKING_MODE_MASKED = "masked"
	MASKING_MODE_BRIDGE = "bridge"
)

// MaskingSession is a time-boxed substitution record for a vehicle contact
// number. Expiry is evaluated on read via IsActive; rows are not eagerly
// flipped to expired.
type MaskingSession struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	SessionID string   `gorm:"type:varchar(36);not null;uniqueIndex" json:"session_id"`
	VehicleID uint     `gorm:"not null;index:idx_masking_sessions_lookup,priority:1" json:"vehicle_id"`
	Vehicle   *Vehicle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Mode      string   `gorm:"type:varchar(10);not null;default:'masked'" json:"mode"`

	OriginalPhone string `gorm:"type:varchar(17);not null" json:"original_phone"`
	MaskedNumber  string `gorm:"type:varchar(17)" json:"masked_number"`
	ScannerPhone  string `gorm:"type:varchar(17)" json:"scanner_phone"`
	TwilioCallSID string `gorm:"type:varchar(50);index" json:"twilio_call_sid"`

	Status       string     `gorm:"type:varchar(20);not null;default:'active';index:idx_masking_sessions_lookup,priority:2" json:"status"`
	CallCount    uint       `gorm:"default:0" json:"call_count"`
	LastCalledAt *time.Time `gorm:"type:timestamp;default:null" json:"last_called_at"`
	ExpiresAt    time.Time  `gorm:"not null;index:idx_masking_sessions_lookup,priority:3" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public session identifier.
func (s *MaskingSession) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the session is usable at the given instant.
// Status alone is not enough: a row stays "active" in storage after its
// expiry until housekeeping touches it.
func (s *MaskingSession) IsActive(now time.Time) bool {
	return s.Status == MASKING_STATUS_ACTIVE && !now.After(s.ExpiresAt)
}

// IsBridge reports whether the session tracks a provider-bridged call pairing.
func (s *MaskingSession) IsBridge() bool {
	return s.Mode == MASKING_MODE_BRIDGE
}
