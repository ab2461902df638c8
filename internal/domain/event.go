package domain

import (
	"time"

	"github.com/google/uuid"
)

// Slot mutation event types recorded in the outbox.
const (
	EventSlotAdded   = "slot-added"
	EventSlotUpdated = "slot-updated"
	EventSlotRemoved = "slot-removed"
)

// SlotEvent is one timetable mutation awaiting delivery as a notice.
type SlotEvent struct {
	ID        uuid.UUID
	EventType string
	Payload   SlotEventPayload
	CreatedAt time.Time
}

// SlotEventPayload describes the mutated slot in display form.
type SlotEventPayload struct {
	ClassID    string `json:"class_id"`
	SlotID     string `json:"slot_id"`
	Weekday    int    `json:"weekday"`
	Subject    string `json:"subject"`
	Instructor string `json:"instructor"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}
