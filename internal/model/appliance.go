package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplianceType defines the closed set of supported appliance hardware
type ApplianceType string

const (
	ApplianceTypeToasterOven ApplianceType = "Toaster_Oven"
)

// Appliance represents a paired physical cooking device.
// An appliance is "cooking" iff CookingStartTime is non-nil; a non-nil
// CookingStartTime always implies a non-nil RecipeID.
type Appliance struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	BLEId            string        `json:"ble_id" gorm:"column:ble_id;size:64"` // pairing-transport address, may differ from ID
	Name             string        `json:"name" gorm:"size:100;not null"`
	Type             ApplianceType `json:"type" gorm:"type:varchar(30);default:'Toaster_Oven'"`
	TemperatureC     float64       `json:"temperature_c"`
	TemperatureF     float64       `json:"temperature_f"`
	CookingStartTime *time.Time    `json:"cooking_start_time"`
	RecipeID         *uuid.UUID    `json:"recipe_id" gorm:"type:uuid"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	// Relations
	Recipe *Recipe `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	Users  []User  `json:"-" gorm:"many2many:appliance_users"`
}

// BeforeCreate assigns an id when the database default is unavailable
// (device registrations supply their own).
func (a *Appliance) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsCooking reports whether a cooking session is currently active
func (a *Appliance) IsCooking() bool {
	return a.CookingStartTime != nil
}
