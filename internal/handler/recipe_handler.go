package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/service"
)

// Max recipe image size: 10MB
const maxImageSize = 10 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// RecipeHandler handles recipe and QR-code endpoints
type RecipeHandler struct {
	recipeService *service.RecipeService
}

func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

// Create godoc
// @Summary Create a recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RecipeRequest true "Recipe request"
// @Success 201 {object} model.Recipe
// @Failure 400 {object} model.ErrorResponse
// @Router /recipes [post]
func (h *RecipeHandler) Create(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	recipe, err := h.recipeService.Create(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// List godoc
// @Summary List the current user's recipes
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Recipe
// @Router /recipes [get]
func (h *RecipeHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	recipes, err := h.recipeService.All(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

// Get godoc
// @Summary Get a recipe
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} model.ErrorResponse
// @Router /recipes/{id} [get]
func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// Update godoc
// @Summary Update a recipe
// @Description Sessions already bound hold a snapshot; edits only affect later redemptions.
// @Tags Recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Param body body model.RecipeRequest true "Recipe request"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} model.ErrorResponse
// @Router /recipes/{id} [put]
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	recipe, err := h.recipeService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// Delete godoc
// @Summary Delete a recipe
// @Tags Recipes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} model.ErrorResponse
// @Router /recipes/{id} [delete]
func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.Delete(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// UploadImage godoc
// @Summary Upload a recipe photo
// @Description Stores the image and returns the recipe with its public URL set. Supports jpg, png, gif, webp up to 10MB.
// @Tags Recipes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recipe ID"
// @Param image formData file true "Image file"
// @Success 200 {object} model.Recipe
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /recipes/{id}/image [post]
func (h *RecipeHandler) UploadImage(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if err.Error() == "http: request body too large" {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "Image too large (max 10MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Image file is required", Message: err.Error()})
		return
	}
	defer file.Close()

	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Unsupported image type",
			Message: "Allowed: jpg, png, gif, webp",
		})
		return
	}

	recipe, err := h.recipeService.UploadImage(c.Request.Context(), id, file, header)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// ==================== QR codes ====================

// AddQRCode godoc
// @Summary Mint a single-use QR code for a recipe
// @Tags QRCodes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.AddQRCodeRequest true "Add QR code request"
// @Success 201 {object} model.QRCode
// @Failure 404 {object} model.ErrorResponse
// @Router /qrcodes [post]
func (h *RecipeHandler) AddQRCode(c *gin.Context) {
	var req model.AddQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	code, err := h.recipeService.AddQRCode(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, code)
}

// GetQRCode godoc
// @Summary Get an unconsumed QR code
// @Tags QRCodes
// @Produce json
// @Security BearerAuth
// @Param id path string true "QR code ID"
// @Success 200 {object} model.QRCode
// @Failure 404 {object} model.ErrorResponse
// @Router /qrcodes/{id} [get]
func (h *RecipeHandler) GetQRCode(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	code, err := h.recipeService.GetQRCode(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, code)
}

// DeleteQRCode godoc
// @Summary Revoke an unconsumed QR code
// @Tags QRCodes
// @Produce json
// @Security BearerAuth
// @Param id path string true "QR code ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /qrcodes/{id} [delete]
func (h *RecipeHandler) DeleteQRCode(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.DeleteQRCode(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "QR code deleted"})
}
