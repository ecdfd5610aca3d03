package repository

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/parkping/ParkPing/app/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.SubscriptionPlan{},
		&models.User{},
		&models.UserPhoneNumber{},
		&models.UserSubscription{},
		&models.Vehicle{},
		&models.QRCodeScan{},
		&models.ParkingSession{},
		&models.MaskingSession{},
	)
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "Asha Verma",
		Email:    fmt.Sprintf("%s@example.com", t.Name()),
		Password: "irrelevant",
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedVehicle(t *testing.T, db *gorm.DB, userID uint, plate string) *models.Vehicle {
	t.Helper()
	vehicle := &models.Vehicle{
		UserID:         userID,
		VehicleType:    models.VEHICLE_TYPE_CAR,
		Make:           "Maruti",
		Model:          "Swift",
		Year:           2021,
		LicensePlate:   plate,
		MaskingEnabled: true,
		IsQRActive:     true,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}
