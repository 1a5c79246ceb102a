package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/model"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists profile edits
func (r *UserRepository) Update(id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an account; watcher/owner join rows cascade away
func (r *UserRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPushToken registers (or replaces) the user's push destination
func (r *UserRepository) SetPushToken(id uuid.UUID, token string) error {
	res := r.db.Model(&model.User{}).Where("id = ?", id).Update("push_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetOrCreateGoogleUser finds a user by email or creates one from a
// verified Google identity.
func (r *UserRepository) GetOrCreateGoogleUser(googleID, email, name string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.GoogleID == nil {
			id := googleID
			if err := r.db.Model(&user).Updates(map[string]interface{}{
				"google_id":     &id,
				"auth_provider": model.AuthProviderGoogle,
			}).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id := googleID
	newUser := model.User{
		Email:        email,
		Name:         name,
		GoogleID:     &id,
		AuthProvider: model.AuthProviderGoogle,
	}
	if err := r.db.Create(&newUser).Error; err != nil {
		return nil, err
	}
	return &newUser, nil
}
