package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryQueue(t *testing.T) {
	t.Parallel()

	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evt, err := NewAttendanceMarked(AttendanceMarked{
		RecordID:  "r1",
		StudentID: "s1",
		TeacherID: "t1",
		Subject:   "Math",
		Day:       "2024-03-04",
		Timestamp: time.Date(2024, time.March, 4, 9, 0, 30, 0, time.UTC),
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("NewAttendanceMarked: %v", err)
	}
	if evt.Type != TypeAttendanceMarked {
		t.Fatalf("Type = %q", evt.Type)
	}

	if err := q.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	select {
	case got := <-out:
		var payload AttendanceMarked
		if err := json.Unmarshal(got.Payload, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.StudentID != "s1" || payload.Subject != "Math" || payload.Day != "2024-03-04" {
			t.Errorf("payload = %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestInMemoryQueue_ConsumeStopsWithUndeliveredEvent(t *testing.T) {
	t.Parallel()

	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())

	if err := q.Publish(context.Background(), Event{Type: "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// Nobody reads from out: the forwarder is parked on the send when the
	// context is cancelled. It must give up and close the channel rather
	// than block forever.
	time.Sleep(10 * time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("consume channel not closed after cancellation")
		}
	}
}

func TestInMemoryQueue_PublishRespectsCancellation(t *testing.T) {
	t.Parallel()

	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := q.Publish(ctx, Event{Type: "x"}); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	cancel()
	// Queue is full and the context is gone; Publish must not block forever.
	if err := q.Publish(ctx, Event{Type: "y"}); err == nil {
		t.Fatal("expected context error on full queue")
	}
}
