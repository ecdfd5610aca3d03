package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetPhoneNumberRepository returns the phone number repository instance
func (f *Factory) GetPhoneNumberRepository() PhoneNumberRepository {
	return f.GetRepositories().PhoneNumber
}

// GetPlanRepository returns the subscription plan repository instance
func (f *Factory) GetPlanRepository() PlanRepository {
	return f.GetRepositories().Plan
}

// GetSubscriptionRepository returns the subscription history repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetVehicleRepository returns the vehicle repository instance
func (f *Factory) GetVehicleRepository() VehicleRepository {
	return f.GetRepositories().Vehicle
}

// GetScanRepository returns the QR scan repository instance
func (f *Factory) GetScanRepository() ScanRepository {
	return f.GetRepositories().Scan
}

// GetParkingSessionRepository returns the parking session repository instance
func (f *Factory) GetParkingSessionRepository() ParkingSessionRepository {
	return f.GetRepositories().ParkingSession
}

// GetMaskingSessionRepository returns the masking session repository instance
func (f *Factory) GetMaskingSessionRepository() MaskingSessionRepository {
	return f.GetRepositories().MaskingSession
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("repository factory not initialized - call InitializeFactory first")
	}
	return globalFactory
}

// ResetGlobalFactory clears the global factory. Test helper.
func ResetGlobalFactory() {
	globalFactory = nil
	factoryOnce = sync.Once{}
}
