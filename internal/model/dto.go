package model

import "github.com/google/uuid"

// ========== Auth DTOs ==========

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type GoogleAuthRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type SetPushTokenRequest struct {
	PushToken string `json:"push_token" binding:"required,max=4096"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

// ========== Appliance DTOs ==========

type RegisterApplianceRequest struct {
	ID    uuid.UUID     `json:"id" binding:"required"`
	Name  string        `json:"name" binding:"required,max=100"`
	BLEId string        `json:"ble_id" binding:"required,max=64"`
	Type  ApplianceType `json:"type" binding:"omitempty,oneof=Toaster_Oven"`
}

type AddApplianceRequest struct {
	Name  string        `json:"name" binding:"required,max=100"`
	BLEId string        `json:"ble_id" binding:"max=64"`
	Type  ApplianceType `json:"type" binding:"omitempty,oneof=Toaster_Oven"`
}

type UpdateApplianceRequest struct {
	Name  string        `json:"name" binding:"required,max=100"`
	BLEId string        `json:"ble_id" binding:"max=64"`
	Type  ApplianceType `json:"type" binding:"omitempty,oneof=Toaster_Oven"`
}

type UpdateTemperatureRequest struct {
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
}

type RedeemQRCodeRequest struct {
	QRCode uuid.UUID `json:"qr_code" binding:"required"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type ConfirmationResponse struct {
	Message string `json:"message"`
}

// ========== Recipe DTOs ==========

type RecipeRequest struct {
	Name            string          `json:"name" binding:"required,max=100"`
	Description     string          `json:"description"`
	CookingTime     int64           `json:"cooking_time" binding:"required,min=1"` // ms
	ExpiryDate      int64           `json:"expiry_date" binding:"required,min=1"`  // ms
	ApplianceType   ApplianceType   `json:"appliance_type" binding:"omitempty,oneof=Toaster_Oven"`
	Temperature     float64         `json:"temperature" binding:"required"`
	TemperatureUnit TemperatureUnit `json:"temperature_unit" binding:"required,oneof=C F"`
	ApplianceMode   ApplianceMode   `json:"appliance_mode" binding:"required,oneof=Bake Broil Convection Rotisserie"`
}

// ========== QR code DTOs ==========

type AddQRCodeRequest struct {
	ID       uuid.UUID `json:"id" binding:"required"` // the value the physical code encodes
	RecipeID uuid.UUID `json:"recipe_id" binding:"required"`
}

// ========== WebSocket frames ==========

// WSEvent is the envelope for every frame crossing the /ws socket,
// in both directions.
type WSEvent struct {
	Type        string      `json:"type"`
	ApplianceID *uuid.UUID  `json:"appliance_id,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
}

// Client -> server frame types
const (
	WSEventSubscribe   = "subscribe"
	WSEventUnsubscribe = "unsubscribe"
)

// Server -> client frame types
const (
	WSEventTemperatureUpdate = "temperatureUpdate"
	WSEventStatusUpdate      = "statusUpdate"
	WSEventError             = "error"
)

// SubscribeRequest is the payload of subscribe/unsubscribe frames
type SubscribeRequest struct {
	Stream      string    `json:"stream"` // "temperature" or "status"
	ApplianceID uuid.UUID `json:"appliance_id"`
}

// TemperaturePayload is pushed on every telemetry update of a subscribed appliance
type TemperaturePayload struct {
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
}

// StatusPayload is pushed on every cook-cycle transition of a subscribed appliance
type StatusPayload struct {
	Type    string `json:"type"` // cookingStart | cookingEnd | alarm
	Message string `json:"message"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
