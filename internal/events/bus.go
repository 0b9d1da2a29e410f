package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventAnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	EventSignalGenerated   EventType = "SIGNAL_GENERATED"
	EventRegimeChanged     EventType = "REGIME_CHANGED"
	EventTrendChange       EventType = "TREND_CHANGE"
	EventOutcomeRecorded   EventType = "OUTCOME_RECORDED"
	EventPortfolioWarning  EventType = "PORTFOLIO_WARNING"
	EventError             EventType = "ERROR"
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

// PublishSignal publishes a signal generated event
func (eb *EventBus) PublishSignal(recordID, signalType, regimeType string, confidence, entryPrice float64) {
	eb.Publish(Event{
		Type: EventSignalGenerated,
		Data: map[string]interface{}{
			"record_id":   recordID,
			"signal_type": signalType,
			"regime_type": regimeType,
			"confidence":  confidence,
			"entry_price": entryPrice,
		},
	})
}

// PublishRegimeChanged publishes a regime change event
func (eb *EventBus) PublishRegimeChanged(regimeType string, trendStrength, volatility float64) {
	eb.Publish(Event{
		Type: EventRegimeChanged,
		Data: map[string]interface{}{
			"regime_type":    regimeType,
			"trend_strength": trendStrength,
			"volatility":     volatility,
		},
	})
}

// PublishTrendChange publishes a trend change event
func (eb *EventBus) PublishTrendChange(direction, reason string) {
	eb.Publish(Event{
		Type: EventTrendChange,
		Data: map[string]interface{}{
			"direction": direction,
			"reason":    reason,
		},
	})
}

// PublishOutcomeRecorded publishes an outcome recorded event
func (eb *EventBus) PublishOutcomeRecorded(recordID string, accurate bool, exitPrice float64) {
	eb.Publish(Event{
		Type: EventOutcomeRecorded,
		Data: map[string]interface{}{
			"record_id":  recordID,
			"accurate":   accurate,
			"exit_price": exitPrice,
		},
	})
}

// PublishPortfolioWarning publishes a portfolio risk ceiling warning
func (eb *EventBus) PublishPortfolioWarning(totalRiskPercent, ceilingPercent float64) {
	eb.Publish(Event{
		Type: EventPortfolioWarning,
		Data: map[string]interface{}{
			"total_risk_percent": totalRiskPercent,
			"ceiling_percent":    ceilingPercent,
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
