package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VEHICLE_TYPE_CAR        = "car"
	VEHICLE_TYPE_MOTORCYCLE = "motorcycle"
	VEHICLE_TYPE_TRUCK      = "truck"
	VEHICLE_TYPE_VAN        = "van"
	VEHICLE_TYPE_SUV        = "suv"
	VEHICLE_TYPE_OTHER      = "other"
)

type Vehicle struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserID       uint    `gorm:"not null;index" json:"user_id"`
	User         *User   `json:"-"`
	VehicleType  string  `gorm:"type:varchar(20);default:'car'" json:"vehicle_type" validate:"oneof=car motorcycle truck van suv other"`
	Make         string  `gorm:"type:varchar(100);not null" json:"make" validate:"required,max=100"`
	Model        string  `gorm:"type:varchar(100);not null" json:"model" validate:"required,max=100"`
	Year         uint    `gorm:"not null" json:"year" validate:"gte=1900,lte=2100"`
	Color        string  `gorm:"type:varchar(50)" json:"color" validate:"max=50"`
	LicensePlate string  `gorm:"type:varchar(20);not null;uniqueIndex" json:"license_plate" validate:"required,max=20"`
	VIN          *string `gorm:"type:varchar(17);uniqueIndex" json:"vin,omitempty" validate:"omitempty,len=17"`

	// Contact information
	ContactPhoneID *uint            `gorm:"default:null" json:"contact_phone_id"`
	ContactPhone   *UserPhoneNumber `gorm:"constraint:OnDelete:SET NULL" json:"contact_phone,omitempty"`

	// QR code settings. QRUniqueID is the opaque identity embedded in the
	// public QR link; it never changes after creation.
	QRUniqueID     string `gorm:"type:varchar(36);not null;uniqueIndex" json:"qr_unique_id"`
	IsQRActive     bool   `gorm:"default:true" json:"is_qr_active"`
	MaskingEnabled bool   `gorm:"default:false" json:"masking_enabled"`

	// Visibility settings
	ShowPhone          bool `gorm:"default:true" json:"show_phone"`
	ShowName           bool `gorm:"default:false" json:"show_name"`
	ShowEmail          bool `gorm:"default:false" json:"show_email"`
	ShowVehicleDetails bool `gorm:"default:true" json:"show_vehicle_details"`

	// QR styling
	QRColorPrimary   string `gorm:"type:varchar(7);default:'#000000'" json:"qr_color_primary"`
	QRColorSecondary string `gorm:"type:varchar(7);default:'#FFFFFF'" json:"qr_color_secondary"`
	QRSize           uint   `gorm:"default:256" json:"qr_size"`
	LogoEnabled      bool   `gorm:"default:false" json:"logo_enabled"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Vehicle) Validate() error {
	val := validator.New()

	return val.Struct(v)
}

// BeforeCreate assigns the immutable QR identity.
func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.QRUniqueID == "" {
		v.QRUniqueID = uuid.NewString()
	}
	return nil
}

// DisplayName returns a human readable vehicle description.
func (v *Vehicle) DisplayName() string {
	return fmt.Sprintf("%d %s %s - %s", v.Year, v.Make, v.Model, v.LicensePlate)
}

// ContactInfo is the public projection of a vehicle shown after a QR scan.
// Fields are only populated when the corresponding visibility flag allows it.
type ContactInfo struct {
	Phone   string          `json:"phone,omitempty"`
	Name    string          `json:"name,omitempty"`
	Email   string          `json:"email,omitempty"`
	Vehicle *VehicleDetails `json:"vehicle,omitempty"`
}

type VehicleDetails struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         uint   `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
}

// GetContactInfo builds the scan projection respecting the visibility flags.
// The owner and contact phone must be resolved by the caller (they are
// usually preloaded on the vehicle).
func (v *Vehicle) GetContactInfo(owner *User, phone *UserPhoneNumber) ContactInfo {
	info := ContactInfo{}
	if v.ShowPhone && phone != nil {
		info.Phone = phone.PhoneNumber
	}
	if v.ShowName && owner != nil {
		info.Name = owner.Name
	}
	if v.ShowEmail && owner != nil {
		info.Email = owner.Email
	}
	if v.ShowVehicleDetails {
		info.Vehicle = &VehicleDetails{
			Make:         v.Make,
			Model:        v.Model,
			Year:         v.Year,
			Color:        v.Color,
			LicensePlate: v.LicensePlate,
		}
	}
	return info
}
