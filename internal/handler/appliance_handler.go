package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/service"
)

// ApplianceHandler handles appliance and cooking-session endpoints
type ApplianceHandler struct {
	applianceService *service.ApplianceService
}

func NewApplianceHandler(applianceService *service.ApplianceService) *ApplianceHandler {
	return &ApplianceHandler{applianceService: applianceService}
}

// ==================== Device-facing endpoints ====================

// Exists godoc
// @Summary Check whether an appliance is registered
// @Tags Appliances
// @Produce json
// @Param id path string true "Appliance ID"
// @Success 200 {object} model.ExistsResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /appliances/{id}/exists [get]
func (h *ApplianceHandler) Exists(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	exists, err := h.applianceService.Exists(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ExistsResponse{Exists: exists})
}

// Register godoc
// @Summary Device self-registration
// @Description An appliance announces itself on boot. Registering the same id again updates the record instead of failing.
// @Tags Appliances
// @Accept json
// @Produce json
// @Param body body model.RegisterApplianceRequest true "Register appliance request"
// @Success 201 {object} model.Appliance
// @Failure 400 {object} model.ErrorResponse
// @Router /appliances/register [post]
func (h *ApplianceHandler) Register(c *gin.Context) {
	var req model.RegisterApplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	appliance, err := h.applianceService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appliance)
}

// UpdateTemperature godoc
// @Summary Ingest a temperature reading
// @Description Stores both readings exactly as supplied and fans them out to temperature-stream subscribers.
// @Tags Appliances
// @Accept json
// @Produce json
// @Param id path string true "Appliance ID"
// @Param body body model.UpdateTemperatureRequest true "Temperature reading"
// @Success 200 {object} model.Appliance
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id}/temperature [put]
func (h *ApplianceHandler) UpdateTemperature(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	appliance, err := h.applianceService.UpdateTemperature(c.Request.Context(), id, req.TemperatureC, req.TemperatureF)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appliance)
}

// RedeemQRCode godoc
// @Summary Redeem a QR code and bind its recipe to the appliance
// @Description The code is single-use: a second scan returns 404. The returned recipe carries the absolute expiry timestamp in expiry_date.
// @Tags Appliances
// @Accept json
// @Produce json
// @Param id path string true "Appliance ID"
// @Param body body model.RedeemQRCodeRequest true "Scanned QR code value"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id}/recipe [post]
func (h *ApplianceHandler) RedeemQRCode(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.RedeemQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	recipe, err := h.applianceService.RedeemQRCode(c.Request.Context(), id, req.QRCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// StartCooking godoc
// @Summary Start a cook cycle
// @Description Requires a bound recipe; returns 409 otherwise. Publishes a cookingStart status event and notifies watchers.
// @Tags Appliances
// @Produce json
// @Param id path string true "Appliance ID"
// @Success 200 {object} model.ConfirmationResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /appliances/{id}/cooking/start [post]
func (h *ApplianceHandler) StartCooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	message, err := h.applianceService.StartCooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ConfirmationResponse{Message: message})
}

// StopCooking godoc
// @Summary Stop the cook cycle
// @Description Clears the session and unbinds the recipe. Stopping an idle appliance succeeds and still emits cookingEnd.
// @Tags Appliances
// @Produce json
// @Param id path string true "Appliance ID"
// @Success 200 {object} model.ConfirmationResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id}/cooking/stop [post]
func (h *ApplianceHandler) StopCooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	message, err := h.applianceService.StopCooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ConfirmationResponse{Message: message})
}

// ==================== User-facing endpoints ====================

// Add godoc
// @Summary Pair a new appliance with the current user
// @Tags Appliances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.AddApplianceRequest true "Add appliance request"
// @Success 201 {object} model.Appliance
// @Failure 400 {object} model.ErrorResponse
// @Router /appliances [post]
func (h *ApplianceHandler) Add(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req model.AddApplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	appliance, err := h.applianceService.Add(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appliance)
}

// List godoc
// @Summary List the current user's appliances
// @Tags Appliances
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Appliance
// @Router /appliances [get]
func (h *ApplianceHandler) List(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	appliances, err := h.applianceService.All(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appliances)
}

// Get godoc
// @Summary Get an appliance with its bound recipe
// @Tags Appliances
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appliance ID"
// @Success 200 {object} model.Appliance
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id} [get]
func (h *ApplianceHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	appliance, err := h.applianceService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appliance)
}

// Update godoc
// @Summary Update appliance attributes
// @Tags Appliances
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appliance ID"
// @Param body body model.UpdateApplianceRequest true "Update appliance request"
// @Success 200 {object} model.Appliance
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id} [put]
func (h *ApplianceHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateApplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	appliance, err := h.applianceService.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appliance)
}

// Delete godoc
// @Summary Unpair an appliance
// @Tags Appliances
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appliance ID"
// @Success 200 {object} model.Appliance
// @Failure 404 {object} model.ErrorResponse
// @Router /appliances/{id} [delete]
func (h *ApplianceHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	appliance, err := h.applianceService.Delete(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, appliance)
}
