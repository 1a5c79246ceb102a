package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/apperr"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/repository"
	"github.com/safe-eats/api/pkg/storage"
)

// RecipeService handles recipe and QR-code management for recipe owners
type RecipeService struct {
	recipeRepo *repository.RecipeRepository
	qrCodeRepo *repository.QRCodeRepository
	storage    *storage.MinIOStorage
}

func NewRecipeService(
	recipeRepo *repository.RecipeRepository,
	qrCodeRepo *repository.QRCodeRepository,
	store *storage.MinIOStorage,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		qrCodeRepo: qrCodeRepo,
		storage:    store,
	}
}

// ==================== Recipes ====================

// Create adds a recipe owned by the caller
func (s *RecipeService) Create(ownerID uuid.UUID, req model.RecipeRequest) (*model.Recipe, error) {
	recipe := &model.Recipe{
		Name:            req.Name,
		Description:     req.Description,
		CookingTime:     req.CookingTime,
		ExpiryDate:      req.ExpiryDate,
		ApplianceType:   applianceTypeOrDefault(req.ApplianceType),
		Temperature:     req.Temperature,
		TemperatureUnit: req.TemperatureUnit,
		ApplianceMode:   req.ApplianceMode,
	}
	if err := s.recipeRepo.Create(recipe, ownerID); err != nil {
		return nil, apperr.External(err, "failed to create recipe")
	}
	return recipe, nil
}

// Get returns a recipe by id
func (s *RecipeService) Get(id uuid.UUID) (*model.Recipe, error) {
	recipe, err := s.recipeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("recipe %s not found", id)
		}
		return nil, apperr.External(err, "failed to load recipe")
	}
	return recipe, nil
}

// All returns the caller's recipes
func (s *RecipeService) All(ownerID uuid.UUID) ([]model.Recipe, error) {
	recipes, err := s.recipeRepo.FindAllForUser(ownerID)
	if err != nil {
		return nil, apperr.External(err, "failed to list recipes")
	}
	return recipes, nil
}

// Update edits a recipe. An active cooking session holds a snapshot taken
// at bind time, so editing mid-cook only affects later sessions.
func (s *RecipeService) Update(id uuid.UUID, req model.RecipeRequest) (*model.Recipe, error) {
	updates := map[string]interface{}{
		"name":             req.Name,
		"description":      req.Description,
		"cooking_time":     req.CookingTime,
		"expiry_date":      req.ExpiryDate,
		"temperature":      req.Temperature,
		"temperature_unit": req.TemperatureUnit,
		"appliance_mode":   req.ApplianceMode,
	}
	if req.ApplianceType != "" {
		updates["appliance_type"] = req.ApplianceType
	}
	if err := s.recipeRepo.Update(id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("recipe %s not found", id)
		}
		return nil, apperr.External(err, "failed to update recipe")
	}
	return s.Get(id)
}

// Delete removes a recipe
func (s *RecipeService) Delete(id uuid.UUID) (*model.Recipe, error) {
	recipe, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("recipe %s not found", id)
		}
		return nil, apperr.External(err, "failed to delete recipe")
	}
	return recipe, nil
}

// UploadImage stores a recipe photo and records its public URL
func (s *RecipeService) UploadImage(ctx context.Context, id uuid.UUID, file multipart.File, header *multipart.FileHeader) (*model.Recipe, error) {
	if s.storage == nil {
		return nil, apperr.External(nil, "image storage is not configured")
	}
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	result, err := s.storage.Upload(ctx, file, header, "recipes")
	if err != nil {
		return nil, apperr.External(err, "failed to upload image")
	}
	if err := s.recipeRepo.SetImageURL(id, result.URL); err != nil {
		return nil, apperr.External(err, "failed to save image URL")
	}
	return s.Get(id)
}

// ==================== QR codes ====================

// AddQRCode mints a single-use code granting a recipe. The code id is the
// value the physical label encodes; its creation time anchors the recipe's
// expiry clock at redemption.
func (s *RecipeService) AddQRCode(req model.AddQRCodeRequest) (*model.QRCode, error) {
	if _, err := s.Get(req.RecipeID); err != nil {
		return nil, err
	}
	code := &model.QRCode{ID: req.ID, RecipeID: req.RecipeID}
	if err := s.qrCodeRepo.Create(code); err != nil {
		return nil, apperr.External(err, "failed to create QR code")
	}
	return code, nil
}

// GetQRCode returns an unconsumed code
func (s *RecipeService) GetQRCode(id uuid.UUID) (*model.QRCode, error) {
	code, err := s.qrCodeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("QR code %s not found", id)
		}
		return nil, apperr.External(err, "failed to load QR code")
	}
	return code, nil
}

// DeleteQRCode revokes an unconsumed code
func (s *RecipeService) DeleteQRCode(id uuid.UUID) error {
	if err := s.qrCodeRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("QR code %s not found", id)
		}
		return apperr.External(err, "failed to delete QR code")
	}
	return nil
}
