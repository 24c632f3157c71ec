package service

// EventType defines the type of event
type EventType string

const (
	EventDevicesAdded      EventType = "devices_added"
	EventDeviceUpdated     EventType = "device_updated"
	EventDevicesDeleted    EventType = "devices_deleted"
	EventDevicesPasted     EventType = "devices_pasted"
	EventConnectionAdded   EventType = "connection_added"
	EventConnectionDeleted EventType = "connection_deleted"
	EventHistoryChanged    EventType = "history_changed"
	EventGraphLoaded       EventType = "graph_loaded"
	EventGraphUpdated      EventType = "graph_updated"
)

// Event represents a change that occurred in the diagram
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
