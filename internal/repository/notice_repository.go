package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
)

type NoticeRepository interface {
	Insert(ctx context.Context, notice domain.Notice) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Notice, error)
	// ListByClass returns the class's notices newest-first.
	ListByClass(ctx context.Context, classID uuid.UUID) ([]domain.Notice, error)
	// ListMachineAfter returns pipeline-generated notices ordered strictly
	// after the (created_at, id) cursor, newest-first. The id tie-break
	// keeps the order total when a drain batch lands several notices in
	// the same timestamp microsecond.
	ListMachineAfter(ctx context.Context, classID uuid.UUID, after time.Time, afterID uuid.UUID) ([]domain.Notice, error)
}

type NoticePostgresRepository struct {
	execer Execer
}

func NewNoticePostgresRepository(execer Execer) *NoticePostgresRepository {
	return &NoticePostgresRepository{execer: execer}
}

func (r *NoticePostgresRepository) Insert(ctx context.Context, notice domain.Notice) error {
	const query = `
INSERT INTO attendance.notices (
	id,
	class_id,
	title,
	content,
	created_at
) VALUES ($1, $2, $3, $4, $5)
`

	_, err := r.execer.ExecContext(
		ctx,
		query,
		notice.ID,
		notice.ClassID,
		notice.Title,
		notice.Content,
		notice.CreatedAt,
	)
	return err
}

func (r *NoticePostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Notice, error) {
	const query = `
SELECT id, class_id, title, content, created_at
FROM attendance.notices
WHERE id = $1
`

	var notice domain.Notice
	err := r.execer.QueryRowContext(ctx, query, id).Scan(
		&notice.ID,
		&notice.ClassID,
		&notice.Title,
		&notice.Content,
		&notice.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notice{}, ErrNotFound
	}
	if err != nil {
		return domain.Notice{}, err
	}
	return notice, nil
}

func (r *NoticePostgresRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]domain.Notice, error) {
	const query = `
SELECT id, class_id, title, content, created_at
FROM attendance.notices
WHERE class_id = $1
ORDER BY created_at DESC, id DESC
`

	return r.list(ctx, query, classID)
}

func (r *NoticePostgresRepository) ListMachineAfter(ctx context.Context, classID uuid.UUID, after time.Time, afterID uuid.UUID) ([]domain.Notice, error) {
	const query = `
SELECT id, class_id, title, content, created_at
FROM attendance.notices
WHERE class_id = $1
	AND (created_at, id) > ($2, $3)
	AND title LIKE $4
ORDER BY created_at DESC, id DESC
`

	return r.list(ctx, query, classID, after, afterID, domain.MachineNoticePrefix+" %")
}

func (r *NoticePostgresRepository) list(ctx context.Context, query string, args ...any) ([]domain.Notice, error) {
	rows, err := r.execer.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []domain.Notice
	for rows.Next() {
		var notice domain.Notice
		if err := rows.Scan(
			&notice.ID,
			&notice.ClassID,
			&notice.Title,
			&notice.Content,
			&notice.CreatedAt,
		); err != nil {
			return nil, err
		}
		notices = append(notices, notice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notices, nil
}

var _ NoticeRepository = (*NoticePostgresRepository)(nil)
