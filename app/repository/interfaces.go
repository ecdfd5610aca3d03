package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByIDWithPlan(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	AssignPlan(userID uint, planID uint, start, end time.Time) error
}

// PhoneNumberRepository defines the interface for user phone number operations
type PhoneNumberRepository interface {
	Create(phone *models.UserPhoneNumber) error
	GetByID(id uint) (*models.UserPhoneNumber, error)
	GetByIDAndUserID(id, userID uint) (*models.UserPhoneNumber, error)
	GetByUserID(userID uint) ([]models.UserPhoneNumber, error)
	GetPrimaryByUserID(userID uint) (*models.UserPhoneNumber, error)
	CountByUserID(userID uint) (int64, error)
	Update(phone *models.UserPhoneNumber) error
	Delete(id uint) error
	// SetPrimary clears the previous primary flag and sets the new one in a
	// single transaction, keeping the one-primary-per-user invariant.
	SetPrimary(userID, phoneID uint) error
}

// PlanRepository defines the interface for subscription plan operations
type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	GetByID(id uint) (*models.SubscriptionPlan, error)
	GetByType(planType string) (*models.SubscriptionPlan, error)
	GetActive() ([]models.SubscriptionPlan, error)
	Update(plan *models.SubscriptionPlan) error
	GetOrCreateByType(plan *models.SubscriptionPlan) (created bool, err error)
}

// VehicleRepository defines the interface for vehicle-related operations
type VehicleRepository interface {
	Create(vehicle *models.Vehicle) error
	GetByID(id uint) (*models.Vehicle, error)
	GetByIDAndUserID(id, userID uint) (*models.Vehicle, error)
	GetByQRUniqueID(qrID string) (*models.Vehicle, error)
	GetByUserID(userID uint) ([]models.Vehicle, error)
	CountByUserID(userID uint) (int64, error)
	Update(vehicle *models.Vehicle) error
	// Delete removes the vehicle together with its scans, parking sessions
	// and masking sessions.
	Delete(id uint) error
	Search(query string) ([]models.Vehicle, error)
}

// SubscriptionRepository defines the interface for plan selection history
type SubscriptionRepository interface {
	Create(sub *models.UserSubscription) error
	GetByUserID(userID uint) ([]models.UserSubscription, error)
	GetCurrentByUserID(userID uint, now time.Time) (*models.UserSubscription, error)
}

// ScanRepository defines the interface for QR scan records
type ScanRepository interface {
	Create(scan *models.QRCodeScan) error
	GetByVehicleID(vehicleID uint, limit int) ([]models.QRCodeScan, error)
	CountByUserIDSince(userID uint, since time.Time) (int64, error)
}

// ParkingSessionRepository defines the interface for parking session records
type ParkingSessionRepository interface {
	Create(session *models.ParkingSession) error
	GetByID(id uint) (*models.ParkingSession, error)
	GetByUserID(userID uint) ([]models.ParkingSession, error)
	GetActiveByVehicleID(vehicleID uint) ([]models.ParkingSession, error)
	Update(session *models.ParkingSession) error
}

// MaskingSessionRepository defines the interface for masking session storage.
// "Active" in these method names always means status=active AND unexpired at
// the given instant.
type MaskingSessionRepository interface {
	Create(session *models.MaskingSession) error
	GetBySessionID(sessionID string) (*models.MaskingSession, error)
	FindActiveByVehicleAndPhone(vehicleID uint, originalPhone string, now time.Time) (*models.MaskingSession, error)
	FindLatestActiveByVehicle(vehicleID uint, now time.Time) (*models.MaskingSession, error)
	FindActiveBySessionID(vehicleID uint, sessionID string, now time.Time) (*models.MaskingSession, error)
	FindByCallSID(callSID string) (*models.MaskingSession, error)
	CountActiveByUserID(userID uint, now time.Time) (int64, error)
	Update(session *models.MaskingSession) error
	// ExpireStale flips rows whose expiry has passed to status=expired.
	// Reporting hygiene only; reads never rely on it.
	ExpireStale(now time.Time) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User           UserRepository
	PhoneNumber    PhoneNumberRepository
	Plan           PlanRepository
	Subscription   SubscriptionRepository
	Vehicle        VehicleRepository
	Scan           ScanRepository
	ParkingSession ParkingSessionRepository
	MaskingSession MaskingSessionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		PhoneNumber:    NewPhoneNumberRepository(db),
		Plan:           NewPlanRepository(db),
		Subscription:   NewSubscriptionRepository(db),
		Vehicle:        NewVehicleRepository(db),
		Scan:           NewScanRepository(db),
		ParkingSession: NewParkingSessionRepository(db),
		MaskingSession: NewMaskingSessionRepository(db),
	}
}
