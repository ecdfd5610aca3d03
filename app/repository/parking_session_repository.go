package repository

import (
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// parkingSessionRepository implements the ParkingSessionRepository interface
type parkingSessionRepository struct {
	db *gorm.DB
}

// NewParkingSessionRepository creates a new parking session repository instance
func NewParkingSessionRepository(db *gorm.DB) ParkingSessionRepository {
	return &parkingSessionRepository{db: db}
}

// Create starts a new parking session
func (r *parkingSessionRepository) Create(session *models.ParkingSession) error {
	return r.db.Create(session).Error
}

// GetByID retrieves a parking session by its ID
func (r *parkingSessionRepository) GetByID(id uint) (*models.ParkingSession, error) {
	var session models.ParkingSession
	err := r.db.Preload("Vehicle").First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByUserID lists parking sessions across a user's vehicles, newest first
func (r *parkingSessionRepository) GetByUserID(userID uint) ([]models.ParkingSession, error) {
	var sessions []models.ParkingSession
	err := r.db.Joins("JOIN vehicles ON vehicles.id = parking_sessions.vehicle_id").
		Where("vehicles.user_id = ? AND vehicles.deleted_at IS NULL", userID).
		Order("parking_sessions.start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// GetActiveByVehicleID lists open sessions for a vehicle
func (r *parkingSessionRepository) GetActiveByVehicleID(vehicleID uint) ([]models.ParkingSession, error) {
	var sessions []models.ParkingSession
	err := r.db.Where("vehicle_id = ? AND status = ?", vehicleID, models.PARKING_STATUS_ACTIVE).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// Update updates an existing parking session
func (r *parkingSessionRepository) Update(session *models.ParkingSession) error {
	return r.db.Save(session).Error
}
