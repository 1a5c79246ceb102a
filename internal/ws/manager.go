package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/model"
)

// SubscriptionManager bridges the event bus and WebSocket clients. Each
// client may hold at most one temperature and one status subscription per
// appliance; every subscription is a bus registration on that appliance's
// topic, torn down deterministically on unsubscribe or disconnect so a
// closed stream can never receive another frame.
type SubscriptionManager struct {
	bus *bus.Bus

	mu      sync.Mutex
	clients map[*Client]bool
}

func NewSubscriptionManager(eventBus *bus.Bus) *SubscriptionManager {
	return &SubscriptionManager{
		bus:     eventBus,
		clients: make(map[*Client]bool),
	}
}

// Register tracks a newly connected client
func (m *SubscriptionManager) Register(client *Client) {
	m.mu.Lock()
	m.clients[client] = true
	m.mu.Unlock()
	log.Printf("✅ WS client connected (total: %d)", m.clientCount())
}

// unregister cancels every live subscription of the client and stops
// tracking it. Safe to call more than once.
func (m *SubscriptionManager) unregister(client *Client) {
	m.mu.Lock()
	if !m.clients[client] {
		m.mu.Unlock()
		return
	}
	delete(m.clients, client)
	m.mu.Unlock()

	client.cancelAll()
	client.closeSend()
	log.Printf("❌ WS client disconnected (total: %d)", m.clientCount())
}

func (m *SubscriptionManager) clientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// HandleFrame processes one client -> server frame
func (m *SubscriptionManager) HandleFrame(client *Client, event model.WSEvent) {
	switch event.Type {
	case model.WSEventSubscribe:
		m.subscribe(client, event)
	case model.WSEventUnsubscribe:
		m.unsubscribe(client, event)
	default:
		client.sendError("unknown frame type: " + event.Type)
	}
}

func (m *SubscriptionManager) subscribe(client *Client, event model.WSEvent) {
	req, ok := parseSubscribeRequest(event)
	if !ok {
		client.sendError("malformed subscribe payload")
		return
	}

	key := subKey{stream: req.Stream, applianceID: req.ApplianceID}
	if client.hasSubscription(key) {
		client.sendError("already subscribed")
		return
	}

	var cancel func()
	switch req.Stream {
	case streamTemperature:
		cancel = m.bus.SubscribeTemperature(req.ApplianceID, func(ev bus.TemperatureEvent) {
			client.push(model.WSEvent{
				Type:        model.WSEventTemperatureUpdate,
				ApplianceID: &ev.ApplianceID,
				Payload: model.TemperaturePayload{
					TemperatureC: ev.TemperatureC,
					TemperatureF: ev.TemperatureF,
				},
			})
		})
	case streamStatus:
		cancel = m.bus.SubscribeStatus(req.ApplianceID, func(ev bus.StatusEvent) {
			client.push(model.WSEvent{
				Type:        model.WSEventStatusUpdate,
				ApplianceID: &ev.ApplianceID,
				Payload: model.StatusPayload{
					Type:    string(ev.Type),
					Message: ev.Message,
				},
			})
		})
	default:
		client.sendError("unknown stream: " + string(req.Stream))
		return
	}

	if !client.addSubscription(key, cancel) {
		// lost a race with a concurrent identical subscribe
		cancel()
		client.sendError("already subscribed")
	}
}

func (m *SubscriptionManager) unsubscribe(client *Client, event model.WSEvent) {
	req, ok := parseSubscribeRequest(event)
	if !ok {
		client.sendError("malformed unsubscribe payload")
		return
	}
	if !client.removeSubscription(subKey{stream: req.Stream, applianceID: req.ApplianceID}) {
		client.sendError("not subscribed")
	}
}

type stream string

const (
	streamTemperature stream = "temperature"
	streamStatus      stream = "status"
)

type subKey struct {
	stream      stream
	applianceID uuid.UUID
}

type subscribeRequest struct {
	Stream      stream
	ApplianceID uuid.UUID
}

func parseSubscribeRequest(event model.WSEvent) (subscribeRequest, bool) {
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return subscribeRequest{}, false
	}
	var payload model.SubscribeRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		return subscribeRequest{}, false
	}
	if payload.ApplianceID == uuid.Nil {
		return subscribeRequest{}, false
	}
	return subscribeRequest{Stream: stream(payload.Stream), ApplianceID: payload.ApplianceID}, true
}
