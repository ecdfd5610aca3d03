package repository

import (
	"gorm.io/gorm"

	"github.com/parkping/ParkPing/app/models"
)

// phoneNumberRepository implements the PhoneNumberRepository interface
type phoneNumberRepository struct {
	db *gorm.DB
}

// NewPhoneNumberRepository creates a new phone number repository instance
func NewPhoneNumberRepository(db *gorm.DB) PhoneNumberRepository {
	return &phoneNumberRepository{db: db}
}

// Create creates a new phone number record
func (r *phoneNumberRepository) Create(phone *models.UserPhoneNumber) error {
	return r.db.Create(phone).Error
}

// GetByID retrieves a phone number by its ID
func (r *phoneNumberRepository) GetByID(id uint) (*models.UserPhoneNumber, error) {
	var phone models.UserPhoneNumber
	err := r.db.First(&phone, id).Error
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

// GetByIDAndUserID retrieves a phone number scoped to its owner
func (r *phoneNumberRepository) GetByIDAndUserID(id, userID uint) (*models.UserPhoneNumber, error) {
	var phone models.UserPhoneNumber
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&phone).Error
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

// GetByUserID lists a user's phone numbers, primary first
func (r *phoneNumberRepository) GetByUserID(userID uint) ([]models.UserPhoneNumber, error) {
	var phones []models.UserPhoneNumber
	err := r.db.Where("user_id = ?", userID).
		Order("is_primary DESC, created_at DESC").
		Find(&phones).Error
	return phones, err
}

// GetPrimaryByUserID retrieves the user's primary phone number
func (r *phoneNumberRepository) GetPrimaryByUserID(userID uint) (*models.UserPhoneNumber, error) {
	var phone models.UserPhoneNumber
	err := r.db.Where("user_id = ? AND is_primary = ?", userID, true).First(&phone).Error
	if err != nil {
		return nil, err
	}
	return &phone, nil
}

// CountByUserID counts a user's phone numbers
func (r *phoneNumberRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserPhoneNumber{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Update updates an existing phone number record
func (r *phoneNumberRepository) Update(phone *models.UserPhoneNumber) error {
	return r.db.Save(phone).Error
}

// Delete removes a phone number record
func (r *phoneNumberRepository) Delete(id uint) error {
	return r.db.Delete(&models.UserPhoneNumber{}, id).Error
}

// SetPrimary flips the primary flag to the given number inside one
// transaction: clear the current primary, set the new one, commit. The
// invariant "exactly one primary per owner" must never depend on callers
// remembering to clear the old flag first.
func (r *phoneNumberRepository) SetPrimary(userID, phoneID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var phone models.UserPhoneNumber
		if err := tx.Where("id = ? AND user_id = ?", phoneID, userID).First(&phone).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserPhoneNumber{}).
			Where("user_id = ? AND is_primary = ?", userID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserPhoneNumber{}).
			Where("id = ?", phoneID).
			Update("is_primary", true).Error
	})
}
