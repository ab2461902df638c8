package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
)

type SlotRepository interface {
	Insert(ctx context.Context, slot domain.Slot) error
	Update(ctx context.Context, slot domain.Slot) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Slot, error)
	ListByClass(ctx context.Context, classID uuid.UUID) ([]domain.Slot, error)
	ListByClassDay(ctx context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error)
	// LockClassDay serializes mutators of a (class, weekday) pair for the
	// rest of the transaction. Row locks alone cannot do this: FOR UPDATE
	// only locks rows that already exist, so two inserts into an empty day
	// would each see no conflicts and both commit.
	LockClassDay(ctx context.Context, classID uuid.UUID, weekday int) error
	// ListByClassDayForUpdate additionally locks the matching rows so none
	// can be moved or deleted under the overlap scan.
	ListByClassDayForUpdate(ctx context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error)
}

type SlotPostgresRepository struct {
	execer Execer
}

func NewSlotPostgresRepository(execer Execer) *SlotPostgresRepository {
	return &SlotPostgresRepository{execer: execer}
}

func (r *SlotPostgresRepository) Insert(ctx context.Context, slot domain.Slot) error {
	const query = `
INSERT INTO attendance.timetable_slots (
	id,
	class_id,
	weekday,
	subject,
	instructor,
	start_minute,
	end_minute,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		slot.ID,
		slot.ClassID,
		slot.Weekday,
		slot.Subject,
		slot.Instructor,
		slot.StartMinute,
		slot.EndMinute,
	)
	return err
}

func (r *SlotPostgresRepository) Update(ctx context.Context, slot domain.Slot) (bool, error) {
	const query = `
UPDATE attendance.timetable_slots
SET weekday = $2,
	subject = $3,
	instructor = $4,
	start_minute = $5,
	end_minute = $6,
	updated_at = now()
WHERE id = $1
`

	result, err := r.execer.ExecContext(
		ctx,
		query,
		slot.ID,
		slot.Weekday,
		slot.Subject,
		slot.Instructor,
		slot.StartMinute,
		slot.EndMinute,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *SlotPostgresRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `DELETE FROM attendance.timetable_slots WHERE id = $1`

	result, err := r.execer.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *SlotPostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Slot, error) {
	const query = `
SELECT id, class_id, weekday, subject, instructor, start_minute, end_minute
FROM attendance.timetable_slots
WHERE id = $1
`

	var slot domain.Slot
	err := r.execer.QueryRowContext(ctx, query, id).Scan(
		&slot.ID,
		&slot.ClassID,
		&slot.Weekday,
		&slot.Subject,
		&slot.Instructor,
		&slot.StartMinute,
		&slot.EndMinute,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Slot{}, ErrNotFound
	}
	if err != nil {
		return domain.Slot{}, err
	}
	return slot, nil
}

func (r *SlotPostgresRepository) LockClassDay(ctx context.Context, classID uuid.UUID, weekday int) error {
	// Transaction-scoped advisory lock; released automatically on commit
	// or rollback.
	const query = `SELECT pg_advisory_xact_lock(hashtextextended($1, $2))`

	_, err := r.execer.ExecContext(ctx, query, classID.String(), int64(weekday))
	return err
}

func (r *SlotPostgresRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]domain.Slot, error) {
	const query = `
SELECT id, class_id, weekday, subject, instructor, start_minute, end_minute
FROM attendance.timetable_slots
WHERE class_id = $1
ORDER BY weekday ASC, start_minute ASC
`

	return r.list(ctx, query, classID)
}

func (r *SlotPostgresRepository) ListByClassDay(ctx context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error) {
	const query = `
SELECT id, class_id, weekday, subject, instructor, start_minute, end_minute
FROM attendance.timetable_slots
WHERE class_id = $1 AND weekday = $2
ORDER BY start_minute ASC
`

	return r.list(ctx, query, classID, weekday)
}

func (r *SlotPostgresRepository) ListByClassDayForUpdate(ctx context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error) {
	const query = `
SELECT id, class_id, weekday, subject, instructor, start_minute, end_minute
FROM attendance.timetable_slots
WHERE class_id = $1 AND weekday = $2
ORDER BY start_minute ASC
FOR UPDATE
`

	return r.list(ctx, query, classID, weekday)
}

func (r *SlotPostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Slot, error) {
	rows, err := r.execer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		var slot domain.Slot
		if err := rows.Scan(
			&slot.ID,
			&slot.ClassID,
			&slot.Weekday,
			&slot.Subject,
			&slot.Instructor,
			&slot.StartMinute,
			&slot.EndMinute,
		); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

var _ SlotRepository = (*SlotPostgresRepository)(nil)
