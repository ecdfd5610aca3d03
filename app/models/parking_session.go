package models

import "time"

const (
	PARKING_STATUS_ACTIVE    = "active"
	PARKING_STATUS_COMPLETED = "completed"
	PARKING_STATUS_CANCELLED = "cancelled"
)

// ParkingSession tracks where a vehicle is parked and for how long.
type ParkingSession struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	VehicleID uint       `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   *Vehicle   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StartTime time.Time  `gorm:"autoCreateTime" json:"start_time"`
	EndTime   *time.Time `gorm:"type:timestamp;default:null" json:"end_time,omitempty"`
	Status    string     `gorm:"type:varchar(20);default:'active';index" json:"status"`

	LocationName    string   `gorm:"type:varchar(200)" json:"location_name"`
	LocationAddress string   `gorm:"type:text" json:"location_address"`
	LocationLat     *float64 `gorm:"type:decimal(9,6);default:null" json:"location_lat,omitempty"`
	LocationLng     *float64 `gorm:"type:decimal(9,6);default:null" json:"location_lng,omitempty"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Duration returns the parking duration, or zero while the session is open.
func (s *ParkingSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}
