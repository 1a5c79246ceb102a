// Package bus is the in-process event channel between the cooking state
// machine and the realtime subscription layer. Topics are partitioned per
// appliance, so a listener only ever sees events for the appliance it
// registered for. It is not durable and does not cross process boundaries;
// both producers and consumers receive it by injection.
package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Stream names the two event kinds the bus carries.
type Stream string

const (
	StreamTemperature Stream = "temperatureUpdate"
	StreamStatus      Stream = "statusUpdate"
)

// StatusType is the transition a StatusEvent announces.
type StatusType string

const (
	StatusCookingStart StatusType = "cookingStart"
	StatusCookingEnd   StatusType = "cookingEnd"
	StatusAlarm        StatusType = "alarm"
)

// TemperatureEvent carries one telemetry reading pair.
type TemperatureEvent struct {
	ApplianceID  uuid.UUID
	TemperatureC float64
	TemperatureF float64
}

// StatusEvent announces a cook-cycle transition.
type StatusEvent struct {
	ApplianceID uuid.UUID
	Type        StatusType
	Message     string
}

type topic struct {
	stream      Stream
	applianceID uuid.UUID
}

// Bus fans events out to every handler registered on the matching
// (stream, appliance) topic. Publish invokes handlers synchronously in
// registration order; handlers must hand slow work off to a goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	topics map[topic]map[int]func(interface{})
}

func New() *Bus {
	return &Bus{topics: make(map[topic]map[int]func(interface{}))}
}

// SubscribeTemperature registers fn for telemetry events of one appliance.
// The returned cancel func is idempotent; fn receives no deliveries from
// publishes that begin after cancel returns. A publish that snapshotted the
// handler set before cancel acquired the lock may still complete.
func (b *Bus) SubscribeTemperature(applianceID uuid.UUID, fn func(TemperatureEvent)) (cancel func()) {
	return b.subscribe(topic{StreamTemperature, applianceID}, func(ev interface{}) {
		fn(ev.(TemperatureEvent))
	})
}

// SubscribeStatus registers fn for cook-cycle transitions of one appliance.
func (b *Bus) SubscribeStatus(applianceID uuid.UUID, fn func(StatusEvent)) (cancel func()) {
	return b.subscribe(topic{StreamStatus, applianceID}, func(ev interface{}) {
		fn(ev.(StatusEvent))
	})
}

// PublishTemperature delivers ev to every live temperature subscription of
// ev.ApplianceID.
func (b *Bus) PublishTemperature(ev TemperatureEvent) {
	b.publish(topic{StreamTemperature, ev.ApplianceID}, ev)
}

// PublishStatus delivers ev to every live status subscription of
// ev.ApplianceID.
func (b *Bus) PublishStatus(ev StatusEvent) {
	b.publish(topic{StreamStatus, ev.ApplianceID}, ev)
}

func (b *Bus) subscribe(t topic, fn func(interface{})) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	handlers, ok := b.topics[t]
	if !ok {
		handlers = make(map[int]func(interface{}))
		b.topics[t] = handlers
	}
	handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if handlers, ok := b.topics[t]; ok {
				delete(handlers, id)
				if len(handlers) == 0 {
					delete(b.topics, t)
				}
			}
		})
	}
}

// publish snapshots the handler set before invoking, so a handler that
// cancels itself (or a sibling) mid-emission cannot skip or double-invoke
// the rest of the set. Delivery is in registration order.
func (b *Bus) publish(t topic, ev interface{}) {
	b.mu.RLock()
	handlers := b.topics[t]
	ids := make([]int, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	snapshot := make(map[int]func(interface{}), len(handlers))
	for id, fn := range handlers {
		snapshot[id] = fn
	}
	b.mu.RUnlock()

	sortInts(ids)
	for _, id := range ids {
		snapshot[id](ev)
	}
}

// ListenerCount reports how many handlers are registered for a topic.
// Used by tests to assert subscriptions are torn down.
func (b *Bus) ListenerCount(stream Stream, applianceID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic{stream, applianceID}])
}

// TotalListeners reports how many handlers are registered across all topics.
func (b *Bus) TotalListeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, handlers := range b.topics {
		n += len(handlers)
	}
	return n
}

func sortInts(a []int) {
	// insertion sort; handler sets are tiny
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
