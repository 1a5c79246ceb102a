package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/model"
)

// RecipeRepository handles database operations for Recipe
type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a new recipe owned by the creating user
func (r *RecipeRepository) Create(recipe *model.Recipe, ownerID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		return tx.Model(recipe).Association("Users").Append(&model.User{ID: ownerID})
	})
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.db.Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// FindAllForUser returns the recipes owned by a user
func (r *RecipeRepository) FindAllForUser(userID uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := r.db.
		Joins("JOIN recipe_users ru ON ru.recipe_id = recipes.id").
		Where("ru.user_id = ?", userID).
		Find(&recipes).Error
	return recipes, err
}

// Update persists recipe edits
func (r *RecipeRepository) Update(id uuid.UUID, updates map[string]interface{}) error {
	res := r.db.Model(&model.Recipe{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetImageURL stores the public URL of an uploaded recipe photo
func (r *RecipeRepository) SetImageURL(id uuid.UUID, url string) error {
	res := r.db.Model(&model.Recipe{}).Where("id = ?", id).Update("image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a recipe. Appliances still bound to it have the whole
// session cleared in the same transaction, so cooking_start_time never
// outlives the recipe it refers to.
func (r *RecipeRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Appliance{}).
			Where("recipe_id = ?", id).
			Updates(map[string]interface{}{
				"cooking_start_time": nil,
				"recipe_id":          nil,
			}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Recipe{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
