package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

func TestFindActiveByVehicleAndPhoneHonorsExpiry(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vehicle := seedVehicle(t, db, user.ID, "KA01AB1234")
	repo := NewMaskingSessionRepository(db)

	now := time.Now()
	session := &models.MaskingSession{
		VehicleID:     vehicle.ID,
		Mode:          models.MASKING_MODE_MASKED,
		OriginalPhone: "+919876543210",
		MaskedNumber:  "+15551234567",
		Status:        models.MASKING_STATUS_ACTIVE,
		ExpiresAt:     now.Add(30 * time.Minute),
	}
	require.NoError(t, repo.Create(session))
	require.NotEmpty(t, session.SessionID)

	found, err := repo.FindActiveByVehicleAndPhone(vehicle.ID, "+919876543210", now)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, found.SessionID)

	// At the exact expiry instant the session still matches, agreeing with
	// the IsActive predicate; expiry begins strictly after.
	found, err = repo.FindActiveByVehicleAndPhone(vehicle.ID, "+919876543210", session.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, found.SessionID)

	_, err = repo.FindActiveByVehicleAndPhone(vehicle.ID, "+919876543210", session.ExpiresAt.Add(time.Second))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// A different phone never matches.
	_, err = repo.FindActiveByVehicleAndPhone(vehicle.ID, "+911111111111", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCountActiveByUserIDIgnoresDeletedVehicles(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	kept := seedVehicle(t, db, user.ID, "KA01AB1234")
	doomed := seedVehicle(t, db, user.ID, "KA02CD5678")
	repo := NewMaskingSessionRepository(db)

	now := time.Now()
	for _, v := range []*models.Vehicle{kept, doomed} {
		require.NoError(t, repo.Create(&models.MaskingSession{
			VehicleID:     v.ID,
			Mode:          models.MASKING_MODE_MASKED,
			OriginalPhone: "+919876543210",
			Status:        models.MASKING_STATUS_ACTIVE,
			ExpiresAt:     now.Add(30 * time.Minute),
		}))
	}

	count, err := repo.CountActiveByUserID(user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, db.Delete(&models.Vehicle{}, doomed.ID).Error)

	count, err = repo.CountActiveByUserID(user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestExpireStaleFlipsOnlyOverdueRows(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vehicle := seedVehicle(t, db, user.ID, "KA01AB1234")
	repo := NewMaskingSessionRepository(db)

	now := time.Now()
	overdue := &models.MaskingSession{
		VehicleID:     vehicle.ID,
		Mode:          models.MASKING_MODE_MASKED,
		OriginalPhone: "+919876543210",
		Status:        models.MASKING_STATUS_ACTIVE,
		ExpiresAt:     now.Add(-time.Minute),
	}
	live := &models.MaskingSession{
		VehicleID:     vehicle.ID,
		Mode:          models.MASKING_MODE_MASKED,
		OriginalPhone: "+918888888888",
		Status:        models.MASKING_STATUS_ACTIVE,
		ExpiresAt:     now.Add(30 * time.Minute),
	}
	require.NoError(t, repo.Create(overdue))
	require.NoError(t, repo.Create(live))

	flipped, err := repo.ExpireStale(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	reloaded, err := repo.GetBySessionID(overdue.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.MASKING_STATUS_EXPIRED, reloaded.Status)

	untouched, err := repo.GetBySessionID(live.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.MASKING_STATUS_ACTIVE, untouched.Status)
}

func TestVehicleDeleteCascadesToSessions(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vehicle := seedVehicle(t, db, user.ID, "KA01AB1234")
	vehicles := NewVehicleRepository(db)
	sessions := NewMaskingSessionRepository(db)

	require.NoError(t, sessions.Create(&models.MaskingSession{
		VehicleID:     vehicle.ID,
		Mode:          models.MASKING_MODE_MASKED,
		OriginalPhone: "+919876543210",
		Status:        models.MASKING_STATUS_ACTIVE,
		ExpiresAt:     time.Now().Add(30 * time.Minute),
	}))

	require.NoError(t, vehicles.Delete(vehicle.ID))

	var count int64
	db.Model(&models.MaskingSession{}).Where("vehicle_id = ?", vehicle.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
