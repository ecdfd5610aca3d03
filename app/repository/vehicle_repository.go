package repository

import (
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// vehicleRepository implements the VehicleRepository interface
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository instance
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

// Create creates a new vehicle
func (r *vehicleRepository) Create(vehicle *models.Vehicle) error {
	return r.db.Create(vehicle).Error
}

// GetByID retrieves a vehicle with owner and contact phone preloaded
func (r *vehicleRepository) GetByID(id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Preload("User").Preload("ContactPhone").First(&vehicle, id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByIDAndUserID retrieves a vehicle scoped to its owner
func (r *vehicleRepository) GetByIDAndUserID(id, userID uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Preload("ContactPhone").
		Where("id = ? AND user_id = ?", id, userID).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByQRUniqueID resolves an opaque QR identity to its vehicle. This is the
// entry point for every public-facing operation.
func (r *vehicleRepository) GetByQRUniqueID(qrID string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Preload("User").Preload("User.CurrentPlan").Preload("ContactPhone").
		Where("qr_unique_id = ?", qrID).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetByUserID lists a user's vehicles, newest first
func (r *vehicleRepository) GetByUserID(userID uint) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.Preload("ContactPhone").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&vehicles).Error
	return vehicles, err
}

// CountByUserID counts a user's vehicles
func (r *vehicleRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Vehicle{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Update updates an existing vehicle
func (r *vehicleRepository) Update(vehicle *models.Vehicle) error {
	return r.db.Save(vehicle).Error
}

// Delete removes the vehicle and cascades to its dependent records.
func (r *vehicleRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", id).Delete(&models.QRCodeScan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vehicle_id = ?", id).Delete(&models.ParkingSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("vehicle_id = ?", id).Delete(&models.MaskingSession{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Vehicle{}, id).Error
	})
}

// Search finds active-QR vehicles by license plate or QR identity
func (r *vehicleRepository) Search(query string) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	like := "%" + query + "%"
	err := r.db.Where("is_qr_active = ?", true).
		Where("license_plate LIKE ? OR qr_unique_id LIKE ?", like, like).
		Find(&vehicles).Error
	return vehicles, err
}
