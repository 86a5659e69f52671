// Package events carries attendance events out of the ledger. Other
// subsystems (notifications, reporting) read from the queue; delivering to
// end users is their concern, not ours.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TypeAttendanceMarked is emitted once per successful redemption.
const TypeAttendanceMarked = "attendance.marked"

// Event is a queue message.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AttendanceMarked is the payload for TypeAttendanceMarked.
type AttendanceMarked struct {
	RecordID  string    `json:"recordId"`
	StudentID string    `json:"studentId"`
	TeacherID string    `json:"teacherId"`
	Subject   string    `json:"subject"`
	Day       string    `json:"day"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
}

// NewAttendanceMarked wraps the payload into an event.
func NewAttendanceMarked(p AttendanceMarked) (Event, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Event{Type: TypeAttendanceMarked, Payload: data}, nil
}

// Publisher is the write side of the queue.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publisher
	Consume(ctx context.Context) (<-chan Event, error)
}
