package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthProvider defines how the user authenticates
type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

// User represents a registered account. A user "watches" the appliances
// attached to it and receives push notifications about their cook cycles.
type User struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string       `json:"name" gorm:"size:100;not null"`
	Email        string       `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password     string       `json:"-" gorm:"size:255"` // empty for Google OAuth users
	AuthProvider AuthProvider `json:"auth_provider" gorm:"type:varchar(20);default:'email'"`
	GoogleID     *string      `json:"-" gorm:"uniqueIndex;size:255"`
	PushToken    *string      `json:"push_token,omitempty" gorm:"size:4096"` // push-notification destination
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	Appliances []Appliance `json:"-" gorm:"many2many:appliance_users"`
	Recipes    []Recipe    `json:"-" gorm:"many2many:recipe_users"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	AuthProvider AuthProvider `json:"auth_provider"`
	PushToken    *string      `json:"push_token,omitempty"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		AuthProvider: u.AuthProvider,
		PushToken:    u.PushToken,
	}
}
