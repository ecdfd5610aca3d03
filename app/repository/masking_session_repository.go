package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// maskingSessionRepository implements the MaskingSessionRepository interface
type maskingSessionRepository struct {
	db *gorm.DB
}

// NewMaskingSessionRepository creates a new masking session repository instance
func NewMaskingSessionRepository(db *gorm.DB) MaskingSessionRepository {
	return &maskingSessionRepository{db: db}
}

// Create creates a new masking session row
func (r *maskingSessionRepository) Create(session *models.MaskingSession) error {
	return r.db.Create(session).Error
}

// GetBySessionID retrieves a session by its public identifier
func (r *maskingSessionRepository) GetBySessionID(sessionID string) (*models.MaskingSession, error) {
	var session models.MaskingSession
	err := r.db.Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveByVehicleAndPhone returns the most recent live session for the
// (vehicle, original phone) pair. Expiry is part of the query, not the row;
// a session stays live through the exact expiry instant, matching IsActive.
func (r *maskingSessionRepository) FindActiveByVehicleAndPhone(vehicleID uint, originalPhone string, now time.Time) (*models.MaskingSession, error) {
	var session models.MaskingSession
	err := r.db.Where("vehicle_id = ? AND original_phone = ? AND status = ? AND expires_at >= ?",
		vehicleID, originalPhone, models.MASKING_STATUS_ACTIVE, now).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindLatestActiveByVehicle returns the newest live session for a vehicle,
// regardless of contact number. Used to resolve provider callbacks.
func (r *maskingSessionRepository) FindLatestActiveByVehicle(vehicleID uint, now time.Time) (*models.MaskingSession, error) {
	var session models.MaskingSession
	err := r.db.Where("vehicle_id = ? AND status = ? AND expires_at >= ?",
		vehicleID, models.MASKING_STATUS_ACTIVE, now).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveBySessionID returns a live session matching vehicle and session id
func (r *maskingSessionRepository) FindActiveBySessionID(vehicleID uint, sessionID string, now time.Time) (*models.MaskingSession, error) {
	var session models.MaskingSession
	err := r.db.Where("vehicle_id = ? AND session_id = ? AND status = ? AND expires_at >= ?",
		vehicleID, sessionID, models.MASKING_STATUS_ACTIVE, now).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByCallSID returns the session tracking the given provider call id
func (r *maskingSessionRepository) FindByCallSID(callSID string) (*models.MaskingSession, error) {
	var session models.MaskingSession
	err := r.db.Where("twilio_call_sid = ?", callSID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CountActiveByUserID counts live sessions across all of a user's vehicles.
// This is the quota input; it is a plain read without a snapshot lock, so a
// concurrent burst may overshoot a cap by one (accepted soft limit).
func (r *maskingSessionRepository) CountActiveByUserID(userID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.MaskingSession{}).
		Joins("JOIN vehicles ON vehicles.id = masking_sessions.vehicle_id").
		Where("vehicles.user_id = ? AND vehicles.deleted_at IS NULL AND masking_sessions.status = ? AND masking_sessions.expires_at >= ?",
			userID, models.MASKING_STATUS_ACTIVE, now).
		Count(&count).Error
	return count, err
}

// Update updates an existing session row
func (r *maskingSessionRepository) Update(session *models.MaskingSession) error {
	return r.db.Save(session).Error
}

// ExpireStale flips overdue rows to expired for reporting hygiene. Strictly
// overdue only: a row at exactly its expiry instant is still live.
func (r *maskingSessionRepository) ExpireStale(now time.Time) (int64, error) {
	res := r.db.Model(&models.MaskingSession{}).
		Where("status = ? AND expires_at < ?", models.MASKING_STATUS_ACTIVE, now).
		Update("status", models.MASKING_STATUS_EXPIRED)
	return res.RowsAffected, res.Error
}
