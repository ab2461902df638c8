package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
)

type OutboxRepository interface {
	Insert(ctx context.Context, event domain.SlotEvent) error
	// ListUnpublished returns undelivered events oldest-first, locking them
	// so concurrent drains do not deliver the same event twice.
	ListUnpublished(ctx context.Context, limit int) ([]domain.SlotEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

type OutboxPostgresRepository struct {
	execer Execer
}

func NewOutboxPostgresRepository(execer Execer) *OutboxPostgresRepository {
	return &OutboxPostgresRepository{execer: execer}
}

func (r *OutboxPostgresRepository) Insert(ctx context.Context, event domain.SlotEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO attendance.outbox_events (
	id,
	event_type,
	payload,
	created_at,
	published
) VALUES ($1, $2, $3, now(), false)
`

	_, err = r.execer.ExecContext(ctx, query, event.ID, event.EventType, payload)
	return err
}

func (r *OutboxPostgresRepository) ListUnpublished(ctx context.Context, limit int) ([]domain.SlotEvent, error) {
	const query = `
SELECT id, event_type, payload, created_at
FROM attendance.outbox_events
WHERE published = false
ORDER BY created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

	rows, err := r.execer.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.SlotEvent
	for rows.Next() {
		var event domain.SlotEvent
		var payload []byte
		if err := rows.Scan(&event.ID, &event.EventType, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *OutboxPostgresRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	const query = `
UPDATE attendance.outbox_events
SET published = true
WHERE id = $1
`

	_, err := r.execer.ExecContext(ctx, query, id)
	return err
}

var _ OutboxRepository = (*OutboxPostgresRepository)(nil)
