package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/safe-eats/api/internal/apperr"
	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/repository"
	"github.com/safe-eats/api/pkg/notification"
)

// ApplianceService owns the cooking-session lifecycle: QR-code redemption,
// the idle/cooking transitions, and telemetry ingestion. Every state
// mutation is persisted before the corresponding bus event is published, so
// a subscriber that re-reads the appliance on receipt observes the new
// state. Push dispatch runs on its own goroutine and is never awaited.
type ApplianceService struct {
	applianceRepo *repository.ApplianceRepository
	qrCodeRepo    *repository.QRCodeRepository
	bus           *bus.Bus
	dispatcher    *notification.Dispatcher

	// Serializes Redeem/Start/Stop per appliance so concurrent transitions
	// cannot double-apply or double-notify.
	locks sync.Map // uuid.UUID -> *sync.Mutex

	// Overridable clock for tests.
	now func() time.Time
}

func NewApplianceService(
	applianceRepo *repository.ApplianceRepository,
	qrCodeRepo *repository.QRCodeRepository,
	eventBus *bus.Bus,
	dispatcher *notification.Dispatcher,
) *ApplianceService {
	return &ApplianceService{
		applianceRepo: applianceRepo,
		qrCodeRepo:    qrCodeRepo,
		bus:           eventBus,
		dispatcher:    dispatcher,
		now:           time.Now,
	}
}

func (s *ApplianceService) lock(applianceID uuid.UUID) func() {
	mu, _ := s.locks.LoadOrStore(applianceID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// ==================== CRUD ====================

// Exists reports whether an appliance is registered
func (s *ApplianceService) Exists(id uuid.UUID) (bool, error) {
	return s.applianceRepo.Exists(id)
}

// Register is the device-initiated announcement: an appliance upserts
// itself when it boots, before any user has claimed it.
func (s *ApplianceService) Register(req model.RegisterApplianceRequest) (*model.Appliance, error) {
	appliance := &model.Appliance{
		ID:    req.ID,
		Name:  req.Name,
		BLEId: req.BLEId,
		Type:  applianceTypeOrDefault(req.Type),
	}
	if err := s.applianceRepo.Upsert(appliance); err != nil {
		return nil, apperr.External(err, "failed to register appliance")
	}
	return s.Get(appliance.ID)
}

// Add creates an appliance on behalf of a user, who becomes its watcher
func (s *ApplianceService) Add(userID uuid.UUID, req model.AddApplianceRequest) (*model.Appliance, error) {
	appliance := &model.Appliance{
		Name:  req.Name,
		BLEId: req.BLEId,
		Type:  applianceTypeOrDefault(req.Type),
	}
	if err := s.applianceRepo.Create(appliance, userID); err != nil {
		return nil, apperr.External(err, "failed to create appliance")
	}
	return appliance, nil
}

// Get returns an appliance with its bound recipe preloaded
func (s *ApplianceService) Get(id uuid.UUID) (*model.Appliance, error) {
	appliance, err := s.applianceRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("appliance %s not found", id)
		}
		return nil, apperr.External(err, "failed to load appliance")
	}
	return appliance, nil
}

// All returns the caller's watched appliances
func (s *ApplianceService) All(userID uuid.UUID) ([]model.Appliance, error) {
	appliances, err := s.applianceRepo.FindAllForUser(userID)
	if err != nil {
		return nil, apperr.External(err, "failed to list appliances")
	}
	return appliances, nil
}

// Update edits the user-visible appliance attributes
func (s *ApplianceService) Update(id uuid.UUID, req model.UpdateApplianceRequest) (*model.Appliance, error) {
	updates := map[string]interface{}{
		"name":   req.Name,
		"ble_id": req.BLEId,
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if err := s.applianceRepo.Update(id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("appliance %s not found", id)
		}
		return nil, apperr.External(err, "failed to update appliance")
	}
	return s.Get(id)
}

// Delete unpairs an appliance
func (s *ApplianceService) Delete(id uuid.UUID) (*model.Appliance, error) {
	appliance, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.applianceRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("appliance %s not found", id)
		}
		return nil, apperr.External(err, "failed to delete appliance")
	}
	return appliance, nil
}

// ==================== Cooking session state machine ====================

// RedeemQRCode binds the recipe granted by a single-use code to an
// appliance. The code is invalidated atomically with the bind, so a second
// scan fails with NotFound.
//
// The returned recipe's ExpiryDate holds the absolute expiry timestamp
// (unix ms = code.CreatedAt + shelf-life duration), not the stored
// duration; callers must not feed it back in as a duration. If that moment
// is already past, an alarm status event is published; the bind still
// succeeds.
func (s *ApplianceService) RedeemQRCode(ctx context.Context, applianceID, qrCodeID uuid.UUID) (*model.Recipe, error) {
	unlock := s.lock(applianceID)
	defer unlock()

	code, recipe, err := s.qrCodeRepo.Consume(qrCodeID, applianceID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplianceNotFound):
			return nil, apperr.NotFound("appliance %s not found", applianceID)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.NotFound("QR code %s not found", qrCodeID)
		default:
			return nil, apperr.External(err, "failed to redeem QR code")
		}
	}

	absoluteExpiry := code.CreatedAt.UnixMilli() + recipe.ExpiryDate
	recipe.ExpiryDate = absoluteExpiry

	if absoluteExpiry < s.now().UnixMilli() {
		s.bus.PublishStatus(bus.StatusEvent{
			ApplianceID: applianceID,
			Type:        bus.StatusAlarm,
			Message:     fmt.Sprintf("%s is expired", recipe.Name),
		})
	}

	return recipe, nil
}

// StartCooking begins a cook cycle. The appliance must have a recipe bound;
// otherwise InvalidState is returned and nothing is published or dispatched.
func (s *ApplianceService) StartCooking(ctx context.Context, applianceID uuid.UUID) (string, error) {
	unlock := s.lock(applianceID)
	defer unlock()

	appliance, err := s.Get(applianceID)
	if err != nil {
		return "", err
	}
	if appliance.RecipeID == nil || appliance.Recipe == nil {
		return "", apperr.InvalidState("no recipe assigned")
	}

	startedAt := s.now()
	if err := s.applianceRepo.SetCookingStart(applianceID, startedAt); err != nil {
		return "", apperr.External(err, "failed to start cooking")
	}

	s.bus.PublishStatus(bus.StatusEvent{
		ApplianceID: applianceID,
		Type:        bus.StatusCookingStart,
		Message:     fmt.Sprintf("%s is cooking %s", appliance.Name, appliance.Recipe.Name),
	})

	tokens, err := s.applianceRepo.WatcherPushTokens(applianceID)
	if err != nil {
		// Watchers simply miss a push; the transition already happened.
		log.Printf("⚠️  Failed to resolve watcher tokens for %s: %v", applianceID, err)
		tokens = nil
	}
	recipe := *appliance.Recipe
	go s.dispatcher.CookingStart(context.WithoutCancel(ctx), tokens, appliance, &recipe)

	return fmt.Sprintf("%s is cooking %s, notifying %d watcher(s)", appliance.Name, appliance.Recipe.Name, len(tokens)), nil
}

// StopCooking ends the session: the start time is cleared and the recipe
// unbound. Stopping an already-idle appliance is a state no-op but still
// publishes the cookingEnd event and dispatches the push.
func (s *ApplianceService) StopCooking(ctx context.Context, applianceID uuid.UUID) (string, error) {
	unlock := s.lock(applianceID)
	defer unlock()

	appliance, err := s.Get(applianceID)
	if err != nil {
		return "", err
	}

	if err := s.applianceRepo.ClearCookingSession(applianceID); err != nil {
		return "", apperr.External(err, "failed to stop cooking")
	}

	s.bus.PublishStatus(bus.StatusEvent{
		ApplianceID: applianceID,
		Type:        bus.StatusCookingEnd,
		Message:     fmt.Sprintf("%s has stopped cooking", appliance.Name),
	})

	tokens, err := s.applianceRepo.WatcherPushTokens(applianceID)
	if err != nil {
		log.Printf("⚠️  Failed to resolve watcher tokens for %s: %v", applianceID, err)
		tokens = nil
	}
	go s.dispatcher.CookingEnd(context.WithoutCancel(ctx), tokens, appliance)

	return fmt.Sprintf("%s has stopped cooking, notifying %d watcher(s)", appliance.Name, len(tokens)), nil
}

// UpdateTemperature ingests one telemetry reading pair. Both values are
// stored exactly as supplied; the device computes the conversion.
func (s *ApplianceService) UpdateTemperature(ctx context.Context, applianceID uuid.UUID, temperatureC, temperatureF float64) (*model.Appliance, error) {
	if err := s.applianceRepo.UpdateTemperature(applianceID, temperatureC, temperatureF); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("appliance %s not found", applianceID)
		}
		return nil, apperr.External(err, "failed to update temperature")
	}

	s.bus.PublishTemperature(bus.TemperatureEvent{
		ApplianceID:  applianceID,
		TemperatureC: temperatureC,
		TemperatureF: temperatureF,
	})

	return s.Get(applianceID)
}

func applianceTypeOrDefault(t model.ApplianceType) model.ApplianceType {
	if t == "" {
		return model.ApplianceTypeToasterOven
	}
	return t
}
