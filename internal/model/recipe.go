package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemperatureUnit is the display unit of a recipe's target temperature
type TemperatureUnit string

const (
	TemperatureUnitC TemperatureUnit = "C"
	TemperatureUnitF TemperatureUnit = "F"
)

// ApplianceMode defines the heating mode a recipe runs the appliance in
type ApplianceMode string

const (
	ApplianceModeBake       ApplianceMode = "Bake"
	ApplianceModeBroil      ApplianceMode = "Broil"
	ApplianceModeConvection ApplianceMode = "Convection"
	ApplianceModeRotisserie ApplianceMode = "Rotisserie"
)

// Recipe is a named cook profile a user can bind to an appliance.
//
// ExpiryDate is stored as a shelf-life duration in milliseconds. When a QR
// code is redeemed the bound copy returned to the caller carries the absolute
// expiry timestamp (unix milliseconds) instead; the stored row is untouched.
type Recipe struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string          `json:"name" gorm:"size:100;not null"`
	Description     string          `json:"description" gorm:"type:text"`
	CookingTime     int64           `json:"cooking_time" gorm:"not null"` // total cook duration, ms
	ExpiryDate      int64           `json:"expiry_date" gorm:"not null"`  // shelf life, ms (see doc above)
	ApplianceType   ApplianceType   `json:"appliance_type" gorm:"type:varchar(30);default:'Toaster_Oven'"`
	Temperature     float64         `json:"temperature"`
	TemperatureUnit TemperatureUnit `json:"temperature_unit" gorm:"type:varchar(1);default:'C'"`
	ApplianceMode   ApplianceMode   `json:"appliance_mode" gorm:"type:varchar(20);default:'Bake'"`
	ImageURL        string          `json:"image_url,omitempty" gorm:"size:500"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Relations
	Users []User `json:"-" gorm:"many2many:recipe_users"`
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
