package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and bootstraps the schema.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return &DB{Client: db}, err
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		subject     TEXT NOT NULL,
		issued_at   TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_owner   ON sessions(owner_id, active);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL,
		teacher_id  TEXT NOT NULL,
		subject     TEXT NOT NULL,
		day         DATE NOT NULL,
		ts          TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL DEFAULT 'present',
		session_id  TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uniq_attendance_student_subject_day
		ON attendance_records(student_id, subject, day);
	CREATE INDEX IF NOT EXISTS idx_attendance_teacher_day ON attendance_records(teacher_id, day);
	CREATE INDEX IF NOT EXISTS idx_attendance_student_day ON attendance_records(student_id, day);
	CREATE INDEX IF NOT EXISTS idx_attendance_session     ON attendance_records(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
