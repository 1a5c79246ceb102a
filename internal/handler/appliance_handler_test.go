package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/repository"
	"github.com/safe-eats/api/internal/service"
	"github.com/safe-eats/api/pkg/notification"
)

var handlerDBSeq int

type handlerEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

// newHandlerEnv stands up the device-facing routes over a real service and
// an in-memory database, mirroring the wiring in cmd/server.
func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handlerDBSeq++
	dsn := fmt.Sprintf("file:hdl%d?mode=memory&cache=shared", handlerDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.QRCode{},
		&model.Appliance{},
	))

	svc := service.NewApplianceService(
		repository.NewApplianceRepository(db),
		repository.NewQRCodeRepository(db),
		bus.New(),
		notification.NewWithSender(nil),
	)
	h := NewApplianceHandler(svc)

	router := gin.New()
	appliances := router.Group("/api/v1/appliances")
	appliances.POST("/register", h.Register)
	appliances.GET("/:id/exists", h.Exists)
	appliances.PUT("/:id/temperature", h.UpdateTemperature)
	appliances.POST("/:id/recipe", h.RedeemQRCode)
	appliances.POST("/:id/cooking/start", h.StartCooking)
	appliances.POST("/:id/cooking/stop", h.StopCooking)

	return &handlerEnv{db: db, router: router}
}

func (e *handlerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) seedAppliance(t *testing.T) *model.Appliance {
	t.Helper()
	appliance := &model.Appliance{ID: uuid.New(), Name: "Toaster Oven", Type: model.ApplianceTypeToasterOven}
	require.NoError(t, e.db.Create(appliance).Error)
	return appliance
}

func (e *handlerEnv) seedRecipeWithCode(t *testing.T) (*model.Recipe, *model.QRCode) {
	t.Helper()
	recipe := &model.Recipe{
		ID:              uuid.New(),
		Name:            "Steak",
		CookingTime:     20 * time.Minute.Milliseconds(),
		ExpiryDate:      5 * 24 * time.Hour.Milliseconds(),
		ApplianceType:   model.ApplianceTypeToasterOven,
		Temperature:     200,
		TemperatureUnit: model.TemperatureUnitF,
		ApplianceMode:   model.ApplianceModeBake,
	}
	require.NoError(t, e.db.Create(recipe).Error)
	code := &model.QRCode{ID: uuid.New(), RecipeID: recipe.ID}
	require.NoError(t, e.db.Create(code).Error)
	return recipe, code
}

func TestExistsEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	appliance := env.seedAppliance(t)

	w := env.do(t, http.MethodGet, "/api/v1/appliances/"+appliance.ID.String()+"/exists", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/appliances/"+uuid.NewString()+"/exists", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":false}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/appliances/not-a-uuid/exists", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterEndpointUpserts(t *testing.T) {
	env := newHandlerEnv(t)
	id := uuid.New()

	body := model.RegisterApplianceRequest{ID: id, Name: "Counter Oven", BLEId: "AA:BB:CC:DD:EE:FF"}
	w := env.do(t, http.MethodPost, "/api/v1/appliances/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// same id again must not fail
	body.BLEId = "11:22:33:44:55:66"
	w = env.do(t, http.MethodPost, "/api/v1/appliances/register", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	env.db.Model(&model.Appliance{}).Where("id = ?", id).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRedeemEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	appliance := env.seedAppliance(t)
	recipe, code := env.seedRecipeWithCode(t)

	// malformed body is rejected before any mutation
	w := env.do(t, http.MethodPost, "/api/v1/appliances/"+appliance.ID.String()+"/recipe", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var count int64
	env.db.Model(&model.QRCode{}).Where("id = ?", code.ID).Count(&count)
	require.Equal(t, int64(1), count, "rejected request must not consume the code")

	w = env.do(t, http.MethodPost, "/api/v1/appliances/"+appliance.ID.String()+"/recipe",
		model.RedeemQRCodeRequest{QRCode: code.ID})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), recipe.Name)

	// single-use: second scan is gone
	w = env.do(t, http.MethodPost, "/api/v1/appliances/"+appliance.ID.String()+"/recipe",
		model.RedeemQRCodeRequest{QRCode: code.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCookingEndpoints(t *testing.T) {
	env := newHandlerEnv(t)
	appliance := env.seedAppliance(t)
	base := "/api/v1/appliances/" + appliance.ID.String()

	// no recipe bound yet
	w := env.do(t, http.MethodPost, base+"/cooking/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	_, code := env.seedRecipeWithCode(t)
	w = env.do(t, http.MethodPost, base+"/recipe", model.RedeemQRCodeRequest{QRCode: code.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, base+"/cooking/start", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "is cooking")

	w = env.do(t, http.MethodPost, base+"/cooking/stop", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "has stopped cooking")

	w = env.do(t, http.MethodPost, "/api/v1/appliances/"+uuid.NewString()+"/cooking/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemperatureEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	appliance := env.seedAppliance(t)

	w := env.do(t, http.MethodPut, "/api/v1/appliances/"+appliance.ID.String()+"/temperature",
		model.UpdateTemperatureRequest{TemperatureC: 180, TemperatureF: 356})
	assert.Equal(t, http.StatusOK, w.Code)

	var stored model.Appliance
	require.NoError(t, env.db.Where("id = ?", appliance.ID).First(&stored).Error)
	assert.Equal(t, 180.0, stored.TemperatureC)
	assert.Equal(t, 356.0, stored.TemperatureF)

	w = env.do(t, http.MethodPut, "/api/v1/appliances/"+uuid.NewString()+"/temperature",
		model.UpdateTemperatureRequest{TemperatureC: 1, TemperatureF: 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
