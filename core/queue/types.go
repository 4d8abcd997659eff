package queue

import (
	"time"
)

// DefaultQueueKey is the store key used when no queue key is specified.
const DefaultQueueKey = "zpq:tasks"

// Priority orders envelopes for delivery. Lower numeric value means
// higher urgency: priority 1 envelopes are delivered before priority 2,
// which are delivered before priority 3.
type Priority int8

const (
	PriorityHigh    Priority = 1
	PriorityMedium  Priority = 2
	PriorityLow     Priority = 3
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within the allowed range (1-3).
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// String returns the human-readable priority level.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "invalid"
	}
}

// Envelope is the serialized unit of work that crosses the store boundary.
// It is immutable once inserted: the store owns it between Insert and a
// successful TakeLowest, at which point ownership transfers to the consumer
// that took it. There is no intermediate "reserved" state.
type Envelope struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Priority  Priority  `json:"priority"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}
