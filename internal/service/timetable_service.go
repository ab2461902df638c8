package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/repository"
)

// TimetableService owns the weekly recurring schedule. All mutations keep the
// per-(class, weekday) no-overlap invariant and record a slot event in the
// outbox within the same transaction.
type TimetableService struct {
	txManager repository.TxManager
	clock     func() time.Time
}

func NewTimetableService(txManager repository.TxManager) *TimetableService {
	return &TimetableService{
		txManager: txManager,
		clock:     time.Now,
	}
}

// AddSlot creates a recurring slot after validating its range and checking it
// against every existing slot for the same class and weekday.
func (s *TimetableService) AddSlot(
	ctx context.Context,
	classID uuid.UUID,
	weekday int,
	subject string,
	instructor string,
	startMinute int,
	endMinute int,
) (domain.Slot, error) {
	if classID == uuid.Nil || subject == "" {
		return domain.Slot{}, ErrInvalidInput
	}
	if weekday < domain.WeekdayMin || weekday > domain.WeekdayMax {
		return domain.Slot{}, ErrInvalidInput
	}
	if startMinute >= endMinute {
		return domain.Slot{}, ErrInvalidRange
	}

	slot := domain.Slot{
		ID:          uuid.New(),
		ClassID:     classID,
		Weekday:     weekday,
		Subject:     subject,
		Instructor:  instructor,
		StartMinute: startMinute,
		EndMinute:   endMinute,
	}

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		// The advisory lock serializes concurrent mutators of this
		// (class, weekday); without it two inserts into an empty day
		// would both pass the overlap scan.
		if err := repos.Slots.LockClassDay(ctx, classID, weekday); err != nil {
			return err
		}
		existing, err := repos.Slots.ListByClassDayForUpdate(ctx, classID, weekday)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if slot.Overlaps(other) {
				return &ConflictError{Existing: other}
			}
		}
		if err := repos.Slots.Insert(ctx, slot); err != nil {
			return err
		}
		return repos.Outbox.Insert(ctx, slotEvent(domain.EventSlotAdded, slot))
	})
	if err != nil {
		return domain.Slot{}, err
	}

	return slot, nil
}

// UpdateSlot rewrites a slot's fields, excluding the slot itself from the
// overlap comparison set.
func (s *TimetableService) UpdateSlot(
	ctx context.Context,
	id uuid.UUID,
	weekday int,
	subject string,
	instructor string,
	startMinute int,
	endMinute int,
) (domain.Slot, error) {
	if subject == "" {
		return domain.Slot{}, ErrInvalidInput
	}
	if weekday < domain.WeekdayMin || weekday > domain.WeekdayMax {
		return domain.Slot{}, ErrInvalidInput
	}
	if startMinute >= endMinute {
		return domain.Slot{}, ErrInvalidRange
	}

	var updated domain.Slot
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		current, err := repos.Slots.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		updated = domain.Slot{
			ID:          id,
			ClassID:     current.ClassID,
			Weekday:     weekday,
			Subject:     subject,
			Instructor:  instructor,
			StartMinute: startMinute,
			EndMinute:   endMinute,
		}

		if err := repos.Slots.LockClassDay(ctx, current.ClassID, weekday); err != nil {
			return err
		}
		existing, err := repos.Slots.ListByClassDayForUpdate(ctx, current.ClassID, weekday)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.ID == id {
				continue
			}
			if updated.Overlaps(other) {
				return &ConflictError{Existing: other}
			}
		}

		found, err := repos.Slots.Update(ctx, updated)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return repos.Outbox.Insert(ctx, slotEvent(domain.EventSlotUpdated, updated))
	})
	if err != nil {
		return domain.Slot{}, err
	}

	return updated, nil
}

// DeleteSlot removes a slot and records the removal for notification.
func (s *TimetableService) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		current, err := repos.Slots.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		found, err := repos.Slots.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return repos.Outbox.Insert(ctx, slotEvent(domain.EventSlotRemoved, current))
	})
}

// SlotsFor lists a class's slots ordered by (weekday, start) for display.
func (s *TimetableService) SlotsFor(ctx context.Context, classID uuid.UUID) ([]domain.Slot, error) {
	var slots []domain.Slot
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		slots, err = repos.Slots.ListByClass(ctx, classID)
		return err
	})
	return slots, err
}

// LiveSlotFor evaluates the class's live session at the current instant.
func (s *TimetableService) LiveSlotFor(ctx context.Context, classID uuid.UUID) (domain.Slot, bool, error) {
	now := s.clock()
	weekday := domain.WeekdayOf(now)
	if weekday == domain.Sunday {
		return domain.Slot{}, false, nil
	}

	var slots []domain.Slot
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		slots, err = repos.Slots.ListByClassDay(ctx, classID, weekday)
		return err
	})
	if err != nil {
		return domain.Slot{}, false, err
	}

	live, ok := LiveSlot(slots, now)
	return live, ok, nil
}

func slotEvent(eventType string, slot domain.Slot) domain.SlotEvent {
	return domain.SlotEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload: domain.SlotEventPayload{
			ClassID:    slot.ClassID.String(),
			SlotID:     slot.ID.String(),
			Weekday:    slot.Weekday,
			Subject:    slot.Subject,
			Instructor: slot.Instructor,
			StartTime:  domain.FormatClock(slot.StartMinute),
			EndTime:    domain.FormatClock(slot.EndMinute),
		},
	}
}
