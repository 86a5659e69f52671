package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore persists sessions in the sessions table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put inserts a new session.
func (s *PostgresStore) Put(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, owner_id, subject, issued_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sess.ID, sess.OwnerID, sess.Subject, sess.IssuedAt, sess.ExpiresAt, sess.Active)
	if isUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

// Get returns the session for id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, subject, issued_at, expires_at, active
		FROM sessions WHERE id = $1
	`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.OwnerID, &sess.Subject, &sess.IssuedAt, &sess.ExpiresAt, &sess.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

// MarkExpired deactivates the session; already-inactive or unknown ids are a no-op.
func (s *PostgresStore) MarkExpired(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET active = FALSE WHERE id = $1`, id)
	return err
}

// Reap deactivates every session whose expiry has passed.
func (s *PostgresStore) Reap(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE WHERE active AND expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// isUniqueViolation reports whether err is a Postgres unique constraint error (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
