package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"acadence/internal/events"
	"acadence/internal/ledger"
	"acadence/internal/session"
)

// Recorder orchestrates one redemption attempt: validate the session, check
// for an existing mark, write the record. Recorder instances may run in many
// processes at once; the ledger's unique constraint is the only
// serialization point for racing redemptions.
type Recorder struct {
	sessions session.Store
	records  ledger.Ledger
	pub      events.Publisher
	now      func() time.Time
}

// NewRecorder creates a recorder. pub may be nil when event emission is not
// wanted.
func NewRecorder(sessions session.Store, records ledger.Ledger, pub events.Publisher) *Recorder {
	return &Recorder{
		sessions: sessions,
		records:  records,
		pub:      pub,
		now:      time.Now,
	}
}

// Redeem records the student present for the session's subject today.
//
// The existence pre-check gives racing duplicates a friendly answer most of
// the time; the insert's unique-constraint translation is the authoritative
// one, so two concurrent redemptions can never both write.
func (r *Recorder) Redeem(ctx context.Context, sessionID, studentID string) (ledger.Record, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || studentID == "" {
		return ledger.Record{}, fmt.Errorf("%w: session id and student id required", ErrInvalidInput)
	}

	sess, err := r.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return ledger.Record{}, ErrSessionNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !sess.Active {
		return ledger.Record{}, ErrSessionNotFound
	}

	now := r.now()
	if sess.Expired(now) {
		// Lazy expiry: deactivate the moment staleness is observed, with or
		// without a background reaper.
		if err := r.sessions.MarkExpired(ctx, sess.ID); err != nil {
			log.Printf("mark session %s expired failed: %v", sess.ID, err)
		}
		return ledger.Record{}, ErrSessionExpired
	}

	day := ledger.DayOf(now)

	existing, err := r.records.Existing(ctx, studentID, sess.Subject, day)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if existing != nil {
		return ledger.Record{}, &AlreadyMarkedError{Existing: *existing}
	}

	rec, err := r.records.Insert(ctx, ledger.Record{
		StudentID: studentID,
		TeacherID: sess.OwnerID,
		Subject:   sess.Subject,
		Day:       day,
		Timestamp: now,
		Status:    ledger.StatusPresent,
		SessionID: sess.ID,
	})
	if errors.Is(err, ledger.ErrDuplicateRecord) {
		// Lost the race between the pre-check and the insert. Same outcome
		// as the pre-check hit.
		existing, lerr := r.records.Existing(ctx, studentID, sess.Subject, day)
		if lerr != nil {
			return ledger.Record{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, lerr)
		}
		if existing == nil {
			return ledger.Record{}, fmt.Errorf("%w: duplicate reported but record not readable", ErrStorageUnavailable)
		}
		return ledger.Record{}, &AlreadyMarkedError{Existing: *existing}
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	r.emit(ctx, rec)
	return rec, nil
}

func (r *Recorder) emit(ctx context.Context, rec ledger.Record) {
	if r.pub == nil {
		return
	}
	evt, err := events.NewAttendanceMarked(events.AttendanceMarked{
		RecordID:  rec.ID,
		StudentID: rec.StudentID,
		TeacherID: rec.TeacherID,
		Subject:   rec.Subject,
		Day:       ledger.DayKey(rec.Day),
		Timestamp: rec.Timestamp,
		SessionID: rec.SessionID,
	})
	if err != nil {
		log.Printf("build attendance event failed: %v", err)
		return
	}
	if err := r.pub.Publish(ctx, evt); err != nil {
		log.Printf("event publish failed: %v", err)
	}
}
