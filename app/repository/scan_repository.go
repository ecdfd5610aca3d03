package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// scanRepository implements the ScanRepository interface
type scanRepository struct {
	db *gorm.DB
}

// NewScanRepository creates a new QR scan repository instance
func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{db: db}
}

// Create records a QR scan
func (r *scanRepository) Create(scan *models.QRCodeScan) error {
	return r.db.Create(scan).Error
}

// GetByVehicleID lists the most recent scans of a vehicle
func (r *scanRepository) GetByVehicleID(vehicleID uint, limit int) ([]models.QRCodeScan, error) {
	var scans []models.QRCodeScan
	err := r.db.Where("vehicle_id = ?", vehicleID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&scans).Error
	return scans, err
}

// CountByUserIDSince counts scans across a user's vehicles since the cutoff
func (r *scanRepository) CountByUserIDSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.QRCodeScan{}).
		Joins("JOIN vehicles ON vehicles.id = qr_code_scans.vehicle_id").
		Where("vehicles.user_id = ? AND vehicles.deleted_at IS NULL AND qr_code_scans.scanned_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
