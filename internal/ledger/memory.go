package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is a map-backed ledger for dev and tests. The tuple key plus
// the mutex give it the same all-or-nothing duplicate rejection as the
// Postgres unique index.
type MemoryLedger struct {
	mu      sync.RWMutex
	byTuple map[string]Record
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byTuple: make(map[string]Record)}
}

func tupleKey(studentID, subject string, day time.Time) string {
	return studentID + "\x00" + subject + "\x00" + DayKey(day)
}

// Existing returns the record for the tuple, or nil when none exists.
func (l *MemoryLedger) Existing(ctx context.Context, studentID, subject string, day time.Time) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.byTuple[tupleKey(studentID, subject, day)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Insert writes a new record or fails with ErrDuplicateRecord.
func (l *MemoryLedger) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	key := tupleKey(rec.StudentID, rec.Subject, rec.Day)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byTuple[key]; ok {
		return Record{}, ErrDuplicateRecord
	}
	l.byTuple[key] = rec
	return rec, nil
}

// FindByStudent returns the student's records, most recent day first.
func (l *MemoryLedger) FindByStudent(ctx context.Context, studentID, subject string) ([]Record, error) {
	return l.collect(func(rec Record) bool {
		return rec.StudentID == studentID && (subject == "" || rec.Subject == subject)
	}), nil
}

// FindByTeacher returns records against the teacher's sessions.
func (l *MemoryLedger) FindByTeacher(ctx context.Context, teacherID, subject string, day time.Time) ([]Record, error) {
	return l.collect(func(rec Record) bool {
		if rec.TeacherID != teacherID {
			return false
		}
		if subject != "" && rec.Subject != subject {
			return false
		}
		if !day.IsZero() && DayKey(rec.Day) != DayKey(day) {
			return false
		}
		return true
	}), nil
}

// All returns every record, day descending.
func (l *MemoryLedger) All(ctx context.Context) ([]Record, error) {
	return l.collect(func(Record) bool { return true }), nil
}

func (l *MemoryLedger) collect(match func(Record) bool) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var res []Record
	for _, rec := range l.byTuple {
		if match(rec) {
			res = append(res, rec)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		di, dj := DayKey(res[i].Day), DayKey(res[j].Day)
		if di != dj {
			return di > dj
		}
		return res[i].Timestamp.After(res[j].Timestamp)
	})
	return res
}
