package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
)

type attendanceFixture struct {
	timetable  *TimetableService
	attendance *AttendanceService
	store      *memStore
	classID    uuid.UUID
	students   []uuid.UUID
}

func newAttendanceFixture(t *testing.T, memberCount int) *attendanceFixture {
	t.Helper()
	store := newMemStore()
	txManager := &memTxManager{store: store}

	classID := uuid.New()
	students := make([]uuid.UUID, memberCount)
	for i := range students {
		students[i] = uuid.New()
	}
	directory := &fakeDirectory{classes: map[uuid.UUID][]uuid.UUID{classID: students}}

	return &attendanceFixture{
		timetable:  NewTimetableService(txManager),
		attendance: NewAttendanceService(txManager, directory),
		store:      store,
		classID:    classID,
		students:   students,
	}
}

func (f *attendanceFixture) addMathMonday(t *testing.T) {
	t.Helper()
	if _, err := f.timetable.AddSlot(context.Background(), f.classID, 1, "Math", "Dr. Rao", 9*60, 10*60); err != nil {
		t.Fatalf("seed slot: %v", err)
	}
}

func TestAuthorizeMarkDuringLiveSession(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(9, 15) }
	ctx := context.Background()

	if err := f.attendance.AuthorizeMark(ctx, f.classID, "Math", mondayAt(9, 15)); err != nil {
		t.Fatalf("expected authorized, got %v", err)
	}

	err := f.attendance.AuthorizeMark(ctx, f.classID, "Physics", mondayAt(9, 15))
	var denied *DeniedError
	if !errors.As(err, &denied) || denied.Reason != DenySubjectMismatch {
		t.Fatalf("expected subject-mismatch denial, got %v", err)
	}
}

func TestAuthorizeMarkRejectsOtherDates(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(9, 15) }
	ctx := context.Background()

	for _, date := range []time.Time{mondayAt(9, 15).AddDate(0, 0, -1), mondayAt(9, 15).AddDate(0, 0, 1)} {
		err := f.attendance.AuthorizeMark(ctx, f.classID, "Math", date)
		var denied *DeniedError
		if !errors.As(err, &denied) || denied.Reason != DenyNotToday {
			t.Fatalf("expected not-today denial for %s, got %v", date.Format("2006-01-02"), err)
		}
	}
}

func TestAuthorizeMarkOutsideWindow(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(11, 0) }

	err := f.attendance.AuthorizeMark(context.Background(), f.classID, "Math", mondayAt(11, 0))
	var denied *DeniedError
	if !errors.As(err, &denied) || denied.Reason != DenyNoLiveSession {
		t.Fatalf("expected no-live-session denial, got %v", err)
	}
}

func TestAuthorizeMarkUnknownClass(t *testing.T) {
	f := newAttendanceFixture(t, 2)

	err := f.attendance.AuthorizeMark(context.Background(), uuid.New(), "Math", mondayAt(9, 15))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown class, got %v", err)
	}
}

func TestCommitUpsertsByStudentDateSubject(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(9, 15) }
	ctx := context.Background()
	studentA, studentB := f.students[0], f.students[1]
	date := mondayAt(9, 15)

	first := []domain.StudentMark{
		{StudentID: studentA, Present: true},
		{StudentID: studentB, Present: false},
	}
	if err := f.attendance.Commit(ctx, f.classID, "Math", date, first); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	// Second batch rewrites only A; B's record must stay untouched.
	second := []domain.StudentMark{{StudentID: studentA, Present: false}}
	if err := f.attendance.Commit(ctx, f.classID, "Math", date, second); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if len(f.store.records) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(f.store.records))
	}
	records, err := f.attendance.RecordsForStudent(ctx, studentA, nil, nil)
	if err != nil {
		t.Fatalf("records for A: %v", err)
	}
	if len(records) != 1 || records[0].Present {
		t.Fatalf("expected A overwritten to absent, got %+v", records)
	}
	records, err = f.attendance.RecordsForStudent(ctx, studentB, nil, nil)
	if err != nil {
		t.Fatalf("records for B: %v", err)
	}
	if len(records) != 1 || records[0].Present {
		t.Fatalf("expected B still absent, got %+v", records)
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(9, 15) }
	ctx := context.Background()
	date := mondayAt(9, 15)

	batch := []domain.StudentMark{
		{StudentID: f.students[0], Present: true},
		{StudentID: f.students[1], Present: false},
	}
	if err := f.attendance.Commit(ctx, f.classID, "Math", date, batch); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := f.attendance.Commit(ctx, f.classID, "Math", date, batch); err != nil {
		t.Fatalf("repeat commit: %v", err)
	}

	if len(f.store.records) != 2 {
		t.Fatalf("repeat commit changed ledger size: %d", len(f.store.records))
	}
}

func TestCommitRevalidatesGateInsideWrite(t *testing.T) {
	f := newAttendanceFixture(t, 1)
	f.addMathMonday(t)
	now := mondayAt(9, 15)
	f.attendance.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := f.attendance.AuthorizeMark(ctx, f.classID, "Math", now); err != nil {
		t.Fatalf("expected authorized, got %v", err)
	}

	// The session ends between authorization and commit.
	now = mondayAt(10, 30)
	err := f.attendance.Commit(ctx, f.classID, "Math", now, []domain.StudentMark{
		{StudentID: f.students[0], Present: true},
	})
	if !errors.Is(err, ErrDenied) {
		t.Fatalf("expected denial after session end, got %v", err)
	}
	if len(f.store.records) != 0 {
		t.Fatalf("denied commit must write nothing, got %d rows", len(f.store.records))
	}
}

func TestCommitRejectsEmptyBatch(t *testing.T) {
	f := newAttendanceFixture(t, 1)

	err := f.attendance.Commit(context.Background(), f.classID, "Math", mondayAt(9, 15), nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecordsForClassResolvesRoster(t *testing.T) {
	f := newAttendanceFixture(t, 2)
	f.addMathMonday(t)
	f.attendance.clock = func() time.Time { return mondayAt(9, 15) }
	ctx := context.Background()

	batch := []domain.StudentMark{
		{StudentID: f.students[0], Present: true},
		{StudentID: f.students[1], Present: false},
	}
	if err := f.attendance.Commit(ctx, f.classID, "Math", mondayAt(9, 15), batch); err != nil {
		t.Fatalf("commit: %v", err)
	}

	records, err := f.attendance.RecordsForClass(ctx, f.classID, nil, nil)
	if err != nil {
		t.Fatalf("records for class: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
