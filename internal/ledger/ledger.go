// Package ledger stores attendance records, one per student, subject and
// calendar day. The uniqueness of that tuple is the subsystem's core
// invariant and is enforced by the storage layer itself.
package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateRecord is returned when a record for the same (student,
// subject, day) tuple already exists.
var ErrDuplicateRecord = errors.New("ledger: duplicate record")

// Attendance statuses. Redemption only ever writes StatusPresent; absent
// entries are administrative.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is a single attendance entry. Records are append-only: once written
// they are never mutated or deleted here.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	TeacherID string    `json:"teacherId"`
	Subject   string    `json:"subject"`
	Day       time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	SessionID string    `json:"qrSessionId"`
}

// DayOf strips the time of day, returning midnight in t's own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats a day for storage and grouping.
func DayKey(day time.Time) string {
	return day.Format("2006-01-02")
}

// Ledger is append-mostly storage of attendance records. Implementations
// must be safe for concurrent use and must reject duplicate (student,
// subject, day) tuples atomically, not by check-then-insert.
type Ledger interface {
	// Existing returns the record for the tuple, or nil when none exists. It
	// doubles as the fast-path existence check; Insert is the authoritative
	// uniqueness check.
	Existing(ctx context.Context, studentID, subject string, day time.Time) (*Record, error)
	// Insert persists a new record, failing with ErrDuplicateRecord if the
	// tuple is already present, even under concurrent callers.
	Insert(ctx context.Context, rec Record) (Record, error)
	// FindByStudent returns the student's records, most recent day first.
	// An empty subject means no filter.
	FindByStudent(ctx context.Context, studentID, subject string) ([]Record, error)
	// FindByTeacher returns records written against the teacher's sessions,
	// day descending then timestamp descending. Zero day means no day filter.
	FindByTeacher(ctx context.Context, teacherID, subject string, day time.Time) ([]Record, error)
	// All returns every record in the ledger, for school-wide statistics.
	All(ctx context.Context) ([]Record, error)
}
