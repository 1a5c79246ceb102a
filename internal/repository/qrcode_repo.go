package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/model"
)

// ErrApplianceNotFound is returned by Consume when the code exists but the
// target appliance does not, so callers can name the right entity.
var ErrApplianceNotFound = errors.New("appliance not found")

// QRCodeRepository handles database operations for QRCode
type QRCodeRepository struct {
	db *gorm.DB
}

func NewQRCodeRepository(db *gorm.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

// Create inserts a new single-use code
func (r *QRCodeRepository) Create(code *model.QRCode) error {
	return r.db.Create(code).Error
}

// FindByID finds a code that has not been consumed yet
func (r *QRCodeRepository) FindByID(id uuid.UUID) (*model.QRCode, error) {
	var code model.QRCode
	if err := r.db.Where("id = ?", id).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// Delete removes a code without binding it (owner revocation)
func (r *QRCodeRepository) Delete(id uuid.UUID) error {
	res := r.db.Delete(&model.QRCode{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Consume atomically redeems a code for an appliance: the code row is
// deleted and the appliance's recipe binding is set in one transaction, so
// a concurrent second scan of the same code observes ErrRecordNotFound and
// no partial state survives a failure.
//
// Returns the consumed code (for its CreatedAt, which anchors the expiry
// clock) and a snapshot of the granted recipe.
func (r *QRCodeRepository) Consume(qrCodeID, applianceID uuid.UUID) (*model.QRCode, *model.Recipe, error) {
	var code model.QRCode
	var recipe model.Recipe

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", qrCodeID).First(&code).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", code.RecipeID).First(&recipe).Error; err != nil {
			return err
		}

		// Guard against a concurrent redemption that won the race between
		// our read and our delete.
		res := tx.Delete(&model.QRCode{}, "id = ?", qrCodeID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		bind := tx.Model(&model.Appliance{}).Where("id = ?", applianceID).
			Update("recipe_id", recipe.ID)
		if bind.Error != nil {
			return bind.Error
		}
		if bind.RowsAffected == 0 {
			return ErrApplianceNotFound
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &code, &recipe, nil
}
