package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an issued session stays redeemable.
const DefaultTTL = 3 * time.Minute

// ErrEmptySubject is returned when the subject is blank after trimming.
var ErrEmptySubject = errors.New("session: subject required")

// Issuer mints sessions for a (teacher, subject) pair. Multiple sessions may
// be active concurrently for the same pair; the store keys only by id.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewIssuer creates an issuer writing to store. A non-positive ttl falls back
// to DefaultTTL.
func NewIssuer(store Store, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Issue creates and persists a new session owned by ownerID for subject, and
// returns it with the payload destined for the scannable code.
func (i *Issuer) Issue(ctx context.Context, ownerID, subject string) (Session, Payload, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return Session{}, Payload{}, ErrEmptySubject
	}

	now := i.now()
	s := Session{
		ID:        i.newID(),
		OwnerID:   ownerID,
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
		Active:    true,
	}
	if err := i.store.Put(ctx, s); err != nil {
		return Session{}, Payload{}, fmt.Errorf("issue session: %w", err)
	}

	return s, Payload{SessionID: s.ID, Subject: s.Subject, TeacherID: s.OwnerID}, nil
}
