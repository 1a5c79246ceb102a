package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/model"
)

// nextFrame pops one queued outbound frame, or fails the test
func nextFrame(t *testing.T, c *Client) model.WSEvent {
	t.Helper()
	select {
	case data := <-c.send:
		var event model.WSEvent
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("expected a frame, got none")
		return model.WSEvent{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("expected no frame, got %s", data)
	default:
	}
}

func subscribeFrame(stream string, applianceID uuid.UUID) model.WSEvent {
	return model.WSEvent{
		Type: model.WSEventSubscribe,
		Payload: model.SubscribeRequest{
			Stream:      stream,
			ApplianceID: applianceID,
		},
	}
}

func newTestClient(b *bus.Bus) (*SubscriptionManager, *Client) {
	manager := NewSubscriptionManager(b)
	client := NewClient(manager, nil)
	manager.Register(client)
	return manager, client
}

func TestSubscribeTemperatureDeliversFrames(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)
	applianceID := uuid.New()

	manager.HandleFrame(client, subscribeFrame("temperature", applianceID))
	assertNoFrame(t, client)

	eventBus.PublishTemperature(bus.TemperatureEvent{
		ApplianceID:  applianceID,
		TemperatureC: 100,
		TemperatureF: 212,
	})

	frame := nextFrame(t, client)
	assert.Equal(t, model.WSEventTemperatureUpdate, frame.Type)
	require.NotNil(t, frame.ApplianceID)
	assert.Equal(t, applianceID, *frame.ApplianceID)

	payload, err := json.Marshal(frame.Payload)
	require.NoError(t, err)
	var temp model.TemperaturePayload
	require.NoError(t, json.Unmarshal(payload, &temp))
	assert.Equal(t, 100.0, temp.TemperatureC)
	assert.Equal(t, 212.0, temp.TemperatureF)
}

func TestSubscribeStatusDeliversFrames(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)
	applianceID := uuid.New()

	manager.HandleFrame(client, subscribeFrame("status", applianceID))

	eventBus.PublishStatus(bus.StatusEvent{
		ApplianceID: applianceID,
		Type:        bus.StatusCookingStart,
		Message:     "Oven is cooking Steak",
	})

	frame := nextFrame(t, client)
	assert.Equal(t, model.WSEventStatusUpdate, frame.Type)

	payload, err := json.Marshal(frame.Payload)
	require.NoError(t, err)
	var status model.StatusPayload
	require.NoError(t, json.Unmarshal(payload, &status))
	assert.Equal(t, string(bus.StatusCookingStart), status.Type)
	assert.Equal(t, "Oven is cooking Steak", status.Message)
}

func TestSubscriptionIsScopedToAppliance(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)
	mine := uuid.New()
	other := uuid.New()

	manager.HandleFrame(client, subscribeFrame("temperature", mine))

	eventBus.PublishTemperature(bus.TemperatureEvent{ApplianceID: other, TemperatureC: 50, TemperatureF: 122})
	assertNoFrame(t, client)

	eventBus.PublishTemperature(bus.TemperatureEvent{ApplianceID: mine, TemperatureC: 60, TemperatureF: 140})
	frame := nextFrame(t, client)
	assert.Equal(t, mine, *frame.ApplianceID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)
	applianceID := uuid.New()

	manager.HandleFrame(client, subscribeFrame("status", applianceID))

	unsubscribe := subscribeFrame("status", applianceID)
	unsubscribe.Type = model.WSEventUnsubscribe
	manager.HandleFrame(client, unsubscribe)

	eventBus.PublishStatus(bus.StatusEvent{ApplianceID: applianceID, Type: bus.StatusCookingEnd, Message: "done"})
	assertNoFrame(t, client)
	assert.Equal(t, 0, eventBus.TotalListeners())
}

func TestDuplicateSubscribeRejected(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)
	applianceID := uuid.New()

	manager.HandleFrame(client, subscribeFrame("temperature", applianceID))
	manager.HandleFrame(client, subscribeFrame("temperature", applianceID))

	frame := nextFrame(t, client)
	assert.Equal(t, model.WSEventError, frame.Type)
	assert.Equal(t, 1, eventBus.TotalListeners())

	// Same appliance on the other stream is a distinct subscription
	manager.HandleFrame(client, subscribeFrame("status", applianceID))
	assertNoFrame(t, client)
	assert.Equal(t, 2, eventBus.TotalListeners())
}

func TestMalformedFramesAnswerWithError(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)

	// unknown frame type
	manager.HandleFrame(client, model.WSEvent{Type: "shout"})
	assert.Equal(t, model.WSEventError, nextFrame(t, client).Type)

	// unknown stream
	manager.HandleFrame(client, subscribeFrame("humidity", uuid.New()))
	assert.Equal(t, model.WSEventError, nextFrame(t, client).Type)

	// missing appliance id
	manager.HandleFrame(client, subscribeFrame("temperature", uuid.Nil))
	assert.Equal(t, model.WSEventError, nextFrame(t, client).Type)

	// unsubscribe without a matching subscription
	unsubscribe := subscribeFrame("temperature", uuid.New())
	unsubscribe.Type = model.WSEventUnsubscribe
	manager.HandleFrame(client, unsubscribe)
	assert.Equal(t, model.WSEventError, nextFrame(t, client).Type)

	assert.Equal(t, 0, eventBus.TotalListeners())
}

func TestUnregisterCancelsAllSubscriptions(t *testing.T) {
	eventBus := bus.New()
	manager, client := newTestClient(eventBus)

	manager.HandleFrame(client, subscribeFrame("temperature", uuid.New()))
	manager.HandleFrame(client, subscribeFrame("status", uuid.New()))
	require.Equal(t, 2, eventBus.TotalListeners())

	manager.unregister(client)
	assert.Equal(t, 0, eventBus.TotalListeners())

	// send channel is closed so WritePump can exit
	_, open := <-client.send
	assert.False(t, open)

	// idempotent
	manager.unregister(client)
}

func TestTwoClientsSameAppliance(t *testing.T) {
	eventBus := bus.New()
	manager := NewSubscriptionManager(eventBus)
	first := NewClient(manager, nil)
	second := NewClient(manager, nil)
	manager.Register(first)
	manager.Register(second)
	applianceID := uuid.New()

	manager.HandleFrame(first, subscribeFrame("temperature", applianceID))
	manager.HandleFrame(second, subscribeFrame("temperature", applianceID))

	eventBus.PublishTemperature(bus.TemperatureEvent{ApplianceID: applianceID, TemperatureC: 30, TemperatureF: 86})

	assert.Equal(t, model.WSEventTemperatureUpdate, nextFrame(t, first).Type)
	assert.Equal(t, model.WSEventTemperatureUpdate, nextFrame(t, second).Type)

	// dropping one client must not disturb the other
	manager.unregister(first)
	eventBus.PublishTemperature(bus.TemperatureEvent{ApplianceID: applianceID, TemperatureC: 31, TemperatureF: 87.8})
	assert.Equal(t, model.WSEventTemperatureUpdate, nextFrame(t, second).Type)
}
