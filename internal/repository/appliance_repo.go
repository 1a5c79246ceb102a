package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safe-eats/api/internal/model"
)

// ApplianceRepository handles database operations for Appliance
type ApplianceRepository struct {
	db *gorm.DB
}

func NewApplianceRepository(db *gorm.DB) *ApplianceRepository {
	return &ApplianceRepository{db: db}
}

// Create inserts a new appliance and attaches the creating user as a watcher
func (r *ApplianceRepository) Create(appliance *model.Appliance, watcherID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(appliance).Error; err != nil {
			return err
		}
		return tx.Model(appliance).Association("Users").Append(&model.User{ID: watcherID})
	})
}

// Upsert registers a device-initiated appliance, keeping existing rows
// (devices re-announce themselves on every boot).
func (r *ApplianceRepository) Upsert(appliance *model.Appliance) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"ble_id": appliance.BLEId,
		}),
	}).Create(appliance).Error
}

// FindByID finds an appliance with its bound recipe preloaded
func (r *ApplianceRepository) FindByID(id uuid.UUID) (*model.Appliance, error) {
	var appliance model.Appliance
	err := r.db.Preload("Recipe").Where("id = ?", id).First(&appliance).Error
	if err != nil {
		return nil, err
	}
	return &appliance, nil
}

// Exists reports whether an appliance row exists
func (r *ApplianceRepository) Exists(id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.Appliance{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// FindAllForUser returns the appliances watched by a user
func (r *ApplianceRepository) FindAllForUser(userID uuid.UUID) ([]model.Appliance, error) {
	var appliances []model.Appliance
	err := r.db.
		Preload("Recipe").
		Joins("JOIN appliance_users au ON au.appliance_id = appliances.id").
		Where("au.user_id = ?", userID).
		Find(&appliances).Error
	return appliances, err
}

// Update persists name/type/transport-address changes
func (r *ApplianceRepository) Update(id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.Model(&model.Appliance{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an appliance
func (r *ApplianceRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.Appliance{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTemperature stores the last-observed reading pair exactly as
// supplied; no unit conversion is applied here.
func (r *ApplianceRepository) UpdateTemperature(id uuid.UUID, temperatureC, temperatureF float64) error {
	res := r.db.Model(&model.Appliance{}).Where("id = ?", id).Updates(map[string]interface{}{
		"temperature_c": temperatureC,
		"temperature_f": temperatureF,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCookingStart marks the appliance as cooking
func (r *ApplianceRepository) SetCookingStart(id uuid.UUID, startedAt time.Time) error {
	return r.db.Model(&model.Appliance{}).Where("id = ?", id).
		Update("cooking_start_time", startedAt).Error
}

// ClearCookingSession ends the session: both the start time and the recipe
// binding are cleared in one statement.
func (r *ApplianceRepository) ClearCookingSession(id uuid.UUID) error {
	return r.db.Model(&model.Appliance{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cooking_start_time": nil,
		"recipe_id":          nil,
	}).Error
}

// WatcherPushTokens resolves the push destinations of every user watching
// an appliance, skipping users without a registered token.
func (r *ApplianceRepository) WatcherPushTokens(id uuid.UUID) ([]string, error) {
	var tokens []string
	err := r.db.Model(&model.User{}).
		Joins("JOIN appliance_users au ON au.user_id = users.id").
		Where("au.appliance_id = ? AND users.push_token IS NOT NULL", id).
		Pluck("users.push_token", &tokens).Error
	return tokens, err
}
