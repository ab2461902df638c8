package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/repository"
)

const drainBatchSize = 50

// CursorStore keeps each user's last-seen machine-notice position so a
// dismissed change is not re-surfaced, while the notice itself persists for
// other viewers. The position is the (created_at, id) pair of the dismissed
// notice; the id tie-break keeps notices with identical timestamps apart.
type CursorStore interface {
	SeenCursor(ctx context.Context, userID, classID uuid.UUID) (time.Time, uuid.UUID, error)
	AdvanceSeenCursor(ctx context.Context, userID, classID uuid.UUID, seenAt time.Time, seenID uuid.UUID) error
}

// NoticeService posts and lists notices and turns outbox slot events into
// machine-generated timetable-change notices.
type NoticeService struct {
	txManager repository.TxManager
	cursors   CursorStore
	clock     func() time.Time
}

func NewNoticeService(txManager repository.TxManager, cursors CursorStore) *NoticeService {
	return &NoticeService{
		txManager: txManager,
		cursors:   cursors,
		clock:     time.Now,
	}
}

// Post stores a human-authored notice for a class.
func (s *NoticeService) Post(ctx context.Context, classID uuid.UUID, title, content string) (domain.Notice, error) {
	if classID == uuid.Nil || title == "" {
		return domain.Notice{}, ErrInvalidInput
	}

	notice := domain.Notice{
		ID:        uuid.New(),
		ClassID:   classID,
		Title:     title,
		Content:   content,
		CreatedAt: s.clock(),
	}
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return repos.Notices.Insert(ctx, notice)
	})
	if err != nil {
		return domain.Notice{}, err
	}
	return notice, nil
}

// List returns a class's notices newest-first.
func (s *NoticeService) List(ctx context.Context, classID uuid.UUID) ([]domain.Notice, error) {
	var notices []domain.Notice
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		notices, err = repos.Notices.ListByClass(ctx, classID)
		return err
	})
	return notices, err
}

// Unseen returns the machine notices the user has not dismissed yet,
// newest-first.
func (s *NoticeService) Unseen(ctx context.Context, classID, userID uuid.UUID) ([]domain.Notice, error) {
	cursorAt, cursorID, err := s.cursors.SeenCursor(ctx, userID, classID)
	if err != nil {
		return nil, err
	}

	var notices []domain.Notice
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		notices, err = repos.Notices.ListMachineAfter(ctx, classID, cursorAt, cursorID)
		return err
	})
	return notices, err
}

// Dismiss advances the user's cursor past the given notice. The notice stays
// in the store for everyone else.
func (s *NoticeService) Dismiss(ctx context.Context, userID, noticeID uuid.UUID) error {
	var notice domain.Notice
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		notice, err = repos.Notices.GetByID(ctx, noticeID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return err
	}
	return s.cursors.AdvanceSeenCursor(ctx, userID, notice.ClassID, notice.CreatedAt, notice.ID)
}

// DrainOutbox delivers pending slot events as machine notices. Each event
// becomes one notice titled with the reserved prefix and an action tag; the
// event and the notice are settled in the same transaction.
func (s *NoticeService) DrainOutbox(ctx context.Context) (int, error) {
	drained := 0
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		events, err := repos.Outbox.ListUnpublished(ctx, drainBatchSize)
		if err != nil {
			return err
		}
		for _, event := range events {
			classID, err := uuid.Parse(event.Payload.ClassID)
			if err != nil {
				// Undeliverable payload; settle it so it does not wedge the queue.
				if err := repos.Outbox.MarkPublished(ctx, event.ID); err != nil {
					return err
				}
				continue
			}
			notice := domain.Notice{
				ID:        uuid.New(),
				ClassID:   classID,
				Title:     domain.MachineNoticeTitle(actionTag(event.EventType)),
				Content:   summarizeEvent(event),
				CreatedAt: s.clock(),
			}
			if err := repos.Notices.Insert(ctx, notice); err != nil {
				return err
			}
			if err := repos.Outbox.MarkPublished(ctx, event.ID); err != nil {
				return err
			}
			drained++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return drained, nil
}

func actionTag(eventType string) string {
	switch eventType {
	case domain.EventSlotAdded:
		return "ADDED"
	case domain.EventSlotUpdated:
		return "UPDATED"
	case domain.EventSlotRemoved:
		return "REMOVED"
	default:
		return "CHANGED"
	}
}

var weekdayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
}

func summarizeEvent(event domain.SlotEvent) string {
	payload := event.Payload
	day := weekdayNames[payload.Weekday]
	if day == "" {
		day = fmt.Sprintf("day %d", payload.Weekday)
	}
	switch event.EventType {
	case domain.EventSlotRemoved:
		return fmt.Sprintf("%s %s-%s %s was removed from the timetable",
			day, payload.StartTime, payload.EndTime, payload.Subject)
	case domain.EventSlotUpdated:
		return fmt.Sprintf("%s %s-%s is now %s (%s)",
			day, payload.StartTime, payload.EndTime, payload.Subject, payload.Instructor)
	default:
		return fmt.Sprintf("%s %s-%s %s (%s) was added to the timetable",
			day, payload.StartTime, payload.EndTime, payload.Subject, payload.Instructor)
	}
}
