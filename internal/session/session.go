package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateID is returned when a session id already exists in the store.
	ErrDuplicateID = errors.New("session: duplicate id")
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session: not found")
)

// Session is a short-lived authorization token issued by a teacher for one
// subject. Any student holding the id may redeem it until it expires.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Active    bool      `json:"active"`
}

// Expired reports whether the session is past its expiry at the given instant.
// The boundary is inclusive: a session is still redeemable exactly at ExpiresAt.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Redeemable reports whether the session can be redeemed at the given instant.
func (s Session) Redeemable(now time.Time) bool {
	return s.Active && !s.Expired(now)
}

// Payload is the minimal tuple embedded in the scannable code. It carries
// nothing beyond what a client needs to redeem.
type Payload struct {
	SessionID string `json:"sessionId"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacherId"`
}

// Store is keyed, time-bounded storage of sessions. Implementations must be
// safe for concurrent use.
type Store interface {
	// Put inserts a new session, failing with ErrDuplicateID on id collision.
	Put(ctx context.Context, s Session) error
	// Get returns the session for id or ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)
	// MarkExpired idempotently deactivates a session. Unknown ids are a no-op.
	MarkExpired(ctx context.Context, id string) error
	// Reap deactivates sessions whose expiry has passed and returns how many
	// it touched. Hygiene only: redemption checks expiry itself.
	Reap(ctx context.Context, now time.Time) (int, error)
}
