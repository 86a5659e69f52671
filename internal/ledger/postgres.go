package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresLedger persists records in the attendance_records table. The
// unique index on (student_id, subject, day) is what makes Insert atomic
// under racing callers.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a ledger over db.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const recordColumns = `id, student_id, teacher_id, subject, day, ts, status, session_id`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.StudentID, &rec.TeacherID, &rec.Subject, &rec.Day, &rec.Timestamp, &rec.Status, &rec.SessionID)
	return rec, err
}

// Existing returns the record for the tuple, or nil when none exists.
func (l *PostgresLedger) Existing(ctx context.Context, studentID, subject string, day time.Time) (*Record, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE student_id = $1 AND subject = $2 AND day = $3::date
	`, studentID, subject, DayKey(day))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new record, translating the unique index violation into
// ErrDuplicateRecord.
func (l *PostgresLedger) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, student_id, teacher_id, subject, day, ts, status, session_id)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
	`, rec.ID, rec.StudentID, rec.TeacherID, rec.Subject, DayKey(rec.Day), rec.Timestamp, rec.Status, rec.SessionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrDuplicateRecord
		}
		return Record{}, err
	}
	return rec, nil
}

// FindByStudent returns the student's records, most recent day first.
func (l *PostgresLedger) FindByStudent(ctx context.Context, studentID, subject string) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE student_id = $1`
	args := []any{studentID}
	if subject != "" {
		args = append(args, subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	query += " ORDER BY day DESC, ts DESC"
	return l.queryRecords(ctx, query, args...)
}

// FindByTeacher returns records against the teacher's sessions, day
// descending then timestamp descending.
func (l *PostgresLedger) FindByTeacher(ctx context.Context, teacherID, subject string, day time.Time) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE teacher_id = $1`
	args := []any{teacherID}
	if subject != "" {
		args = append(args, subject)
		query += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	if !day.IsZero() {
		args = append(args, DayKey(day))
		query += fmt.Sprintf(" AND day = $%d::date", len(args))
	}
	query += " ORDER BY day DESC, ts DESC"
	return l.queryRecords(ctx, query, args...)
}

// All returns every record, day descending.
func (l *PostgresLedger) All(ctx context.Context) ([]Record, error) {
	return l.queryRecords(ctx, `SELECT `+recordColumns+` FROM attendance_records ORDER BY day DESC, ts DESC`)
}

func (l *PostgresLedger) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
