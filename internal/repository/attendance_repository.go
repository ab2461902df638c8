package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
)

type AttendanceRepository interface {
	// Upsert writes one attendance fact keyed by (student, date, subject),
	// overwriting the present value when the key already exists.
	Upsert(ctx context.Context, record domain.AttendanceRecord) error
	ListByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error)
	ListByStudents(ctx context.Context, studentIDs []uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.AttendanceRecord, error)
}

type AttendancePostgresRepository struct {
	execer Execer
}

func NewAttendancePostgresRepository(execer Execer) *AttendancePostgresRepository {
	return &AttendancePostgresRepository{execer: execer}
}

func (r *AttendancePostgresRepository) Upsert(ctx context.Context, record domain.AttendanceRecord) error {
	const query = `
INSERT INTO attendance.attendance_records (
	student_id,
	date,
	subject,
	present,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (student_id, date, subject)
DO UPDATE SET
	present = EXCLUDED.present,
	updated_at = now()
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		record.StudentID,
		record.Date,
		record.Subject,
		record.Present,
	)
	return err
}

func (r *AttendancePostgresRepository) ListByStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	const query = `
SELECT student_id, date, subject, present
FROM attendance.attendance_records
WHERE student_id = $1
	AND ($2::date IS NULL OR date >= $2)
	AND ($3::date IS NULL OR date <= $3)
ORDER BY date ASC, subject ASC
`

	return r.list(ctx, query, studentID, from, to)
}

func (r *AttendancePostgresRepository) ListByStudents(ctx context.Context, studentIDs []uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	const query = `
SELECT student_id, date, subject, present
FROM attendance.attendance_records
WHERE student_id = ANY($1)
	AND ($2::date IS NULL OR date >= $2)
	AND ($3::date IS NULL OR date <= $3)
ORDER BY date ASC, subject ASC
`

	return r.list(ctx, query, studentIDs, from, to)
}

func (r *AttendancePostgresRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.AttendanceRecord, error) {
	const query = `
SELECT student_id, date, subject, present
FROM attendance.attendance_records
WHERE date = $1
ORDER BY student_id ASC, subject ASC
`

	return r.list(ctx, query, date)
}

func (r *AttendancePostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.AttendanceRecord, error) {
	rows, err := r.execer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AttendanceRecord
	for rows.Next() {
		var record domain.AttendanceRecord
		if err := rows.Scan(
			&record.StudentID,
			&record.Date,
			&record.Subject,
			&record.Present,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

var _ AttendanceRepository = (*AttendancePostgresRepository)(nil)
