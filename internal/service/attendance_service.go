package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/repository"
)

// AttendanceService is the gate and the ledger. Marking is only authorized
// for the current date, during the live session, for the live session's
// subject; nothing is written otherwise.
type AttendanceService struct {
	txManager repository.TxManager
	directory DirectoryClient
	clock     func() time.Time
}

func NewAttendanceService(txManager repository.TxManager, directory DirectoryClient) *AttendanceService {
	return &AttendanceService{
		txManager: txManager,
		directory: directory,
		clock:     time.Now,
	}
}

// AuthorizeMark checks whether attendance may be recorded right now for the
// given class, subject and date. Rules are evaluated in order: the date must
// be today, a session must be live, and its subject must match.
func (s *AttendanceService) AuthorizeMark(ctx context.Context, classID uuid.UUID, subject string, date time.Time) error {
	if classID == uuid.Nil || subject == "" {
		return ErrInvalidInput
	}
	exists, err := s.directory.ClassExists(ctx, classID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	return s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		return s.authorizeWithRepos(ctx, repos, classID, subject, date)
	})
}

// Commit upserts a batch of attendance facts keyed by (student, date,
// subject). The gate condition is re-evaluated inside the transaction so a
// session ending between authorization and commit fails the whole batch.
// Committing the same batch twice leaves the ledger unchanged.
func (s *AttendanceService) Commit(
	ctx context.Context,
	classID uuid.UUID,
	subject string,
	date time.Time,
	marks []domain.StudentMark,
) error {
	if classID == uuid.Nil || subject == "" || len(marks) == 0 {
		return ErrInvalidInput
	}
	exists, err := s.directory.ClassExists(ctx, classID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	day := domain.DateOnly(date)
	return s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := s.authorizeWithRepos(ctx, repos, classID, subject, date); err != nil {
			return err
		}
		for _, mark := range marks {
			record := domain.AttendanceRecord{
				StudentID: mark.StudentID,
				Date:      day,
				Subject:   subject,
				Present:   mark.Present,
			}
			if err := repos.Records.Upsert(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *AttendanceService) authorizeWithRepos(
	ctx context.Context,
	repos repository.TxRepositories,
	classID uuid.UUID,
	subject string,
	date time.Time,
) error {
	now := s.clock()
	if !domain.DateOnly(date).Equal(domain.DateOnly(now)) {
		return &DeniedError{Reason: DenyNotToday}
	}

	weekday := domain.WeekdayOf(now)
	var slots []domain.Slot
	if weekday != domain.Sunday {
		var err error
		slots, err = repos.Slots.ListByClassDay(ctx, classID, weekday)
		if err != nil {
			return err
		}
	}

	live, ok := LiveSlot(slots, now)
	if !ok {
		return &DeniedError{Reason: DenyNoLiveSession}
	}
	if live.Subject != subject {
		return &DeniedError{Reason: DenySubjectMismatch}
	}
	return nil
}

// RecordsForStudent returns a student's facts, optionally bounded by an
// inclusive date range.
func (s *AttendanceService) RecordsForStudent(ctx context.Context, studentID uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByStudent(ctx, studentID, from, to)
		return err
	})
	return records, err
}

// RecordsForClass resolves the class roster through the directory and returns
// every member's facts in the range.
func (s *AttendanceService) RecordsForClass(ctx context.Context, classID uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	members, err := s.directory.ClassMembers(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	var records []domain.AttendanceRecord
	err = s.txManager.WithTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		var err error
		records, err = repos.Records.ListByStudents(ctx, members, from, to)
		return err
	})
	return records, err
}
