package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventAnalysisUpdate  EventType = "ANALYSIS_UPDATE"
	EventSignalChange    EventType = "SIGNAL_CHANGE"
	EventPollCycle       EventType = "POLL_CYCLE"
	EventWatchlistChange EventType = "WATCHLIST_CHANGE"
	EventPlanUpdate      EventType = "PLAN_UPDATE"
	EventError           EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishAnalysisUpdate publishes a fresh analysis result for a pool
func (eb *EventBus) PublishAnalysisUpdate(network, pool string, score float64, verdict, entrySignal string) {
	eb.Publish(Event{
		Type: EventAnalysisUpdate,
		Data: map[string]interface{}{
			"network":      network,
			"pool":         pool,
			"score":        score,
			"verdict":      verdict,
			"entry_signal": entrySignal,
		},
	})
}

// PublishSignalChange publishes an entry signal transition for a pool
func (eb *EventBus) PublishSignalChange(network, pool, previous, current string) {
	eb.Publish(Event{
		Type: EventSignalChange,
		Data: map[string]interface{}{
			"network":  network,
			"pool":     pool,
			"previous": previous,
			"current":  current,
		},
	})
}

// PublishPollCycle publishes poll cycle completion stats
func (eb *EventBus) PublishPollCycle(cycleID string, analyzed, failed int, duration time.Duration) {
	eb.Publish(Event{
		Type: EventPollCycle,
		Data: map[string]interface{}{
			"cycle_id":    cycleID,
			"analyzed":    analyzed,
			"failed":      failed,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// PublishWatchlistChange publishes a watchlist add or remove
func (eb *EventBus) PublishWatchlistChange(network, pool, action string) {
	eb.Publish(Event{
		Type: EventWatchlistChange,
		Data: map[string]interface{}{
			"network": network,
			"pool":    pool,
			"action":  action,
		},
	})
}

// PublishPlanUpdate publishes a trading plan lifecycle change
func (eb *EventBus) PublishPlanUpdate(userID string, planID int64, status string) {
	eb.Publish(Event{
		Type: EventPlanUpdate,
		Data: map[string]interface{}{
			"user_id": userID,
			"plan_id": planID,
			"status":  status,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
