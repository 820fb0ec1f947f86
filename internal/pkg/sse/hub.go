package sse

import (
	"sync"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
)

// EventCorrectionDecided is sent when one of the employee's requests leaves PENDING.
const EventCorrectionDecided = "correction_decided"

const subscriberBuffer = 10

// Event represents an SSE event to be sent to subscribers
type Event struct {
	EmployeeID string
	Event      string
	Data       interface{}
}

// Hub fans events out to the open streams of each employee
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a stream for an employee and returns its channel and cleanup function
func (h *Hub) Subscribe(employeeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[employeeID], ch)
			close(ch)
			if len(h.subscribers[employeeID]) == 0 {
				delete(h.subscribers, employeeID)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every stream of one employee
func (h *Hub) Publish(employeeID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[employeeID] {
		select {
		case ch <- event:
		default:
			// Slow reader; drop rather than block the workflow
		}
	}
}

// NotifyDecision implements correction.Notifier.
func (h *Hub) NotifyDecision(employeeID string, event correction.DecisionEvent) {
	h.Publish(employeeID, Event{
		EmployeeID: employeeID,
		Event:      EventCorrectionDecided,
		Data:       event,
	})
}

// SubscriberCount returns the number of open streams for an employee
func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[employeeID])
}
