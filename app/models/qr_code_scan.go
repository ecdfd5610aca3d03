package models

import "time"

// QRCodeScan records a single hit on a vehicle's public QR page.
type QRCodeScan struct {
	ID                uint     `gorm:"primaryKey" json:"id"`
	VehicleID         uint     `gorm:"not null;index" json:"vehicle_id"`
	Vehicle           *Vehicle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ScannedByIP       string   `gorm:"type:varchar(45)" json:"scanned_by_ip"`
	ScannedByUserAgent string  `gorm:"type:text" json:"scanned_by_user_agent"`
	LocationLat       *float64 `gorm:"type:decimal(9,6);default:null" json:"location_lat,omitempty"`
	LocationLng       *float64 `gorm:"type:decimal(9,6);default:null" json:"location_lng,omitempty"`
	ScannedAt         time.Time `gorm:"autoCreateTime;index" json:"scanned_at"`
}
