package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/repository"
)

// In-memory store shared by the fake repositories. Not transactional; tests
// only exercise service semantics, not rollback behavior.
type memStore struct {
	slots   map[uuid.UUID]domain.Slot
	records map[recordKey]domain.AttendanceRecord
	notices []domain.Notice
	events  []memEvent

	// slotGetErr and noticeGetErr, when set, are returned by lookups to
	// simulate a storage failure.
	slotGetErr   error
	noticeGetErr error
}

type memEvent struct {
	event     domain.SlotEvent
	published bool
}

type recordKey struct {
	studentID uuid.UUID
	date      string
	subject   string
}

func newMemStore() *memStore {
	return &memStore{
		slots:   make(map[uuid.UUID]domain.Slot),
		records: make(map[recordKey]domain.AttendanceRecord),
	}
}

type memTxManager struct {
	store *memStore
}

func (m *memTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	repos := repository.TxRepositories{
		Slots:   &memSlotRepo{store: m.store, locked: make(map[string]bool)},
		Records: &memAttendanceRepo{store: m.store},
		Notices: &memNoticeRepo{store: m.store},
		Outbox:  &memOutboxRepo{store: m.store},
	}
	return fn(ctx, repos)
}

// memSlotRepo tracks the advisory locks taken within its transaction and
// refuses the locked overlap scan without one, mirroring the ordering the
// postgres repository relies on.
type memSlotRepo struct {
	store  *memStore
	locked map[string]bool
}

func lockKey(classID uuid.UUID, weekday int) string {
	return fmt.Sprintf("%s:%d", classID, weekday)
}

func (r *memSlotRepo) Insert(_ context.Context, slot domain.Slot) error {
	r.store.slots[slot.ID] = slot
	return nil
}

func (r *memSlotRepo) Update(_ context.Context, slot domain.Slot) (bool, error) {
	if _, ok := r.store.slots[slot.ID]; !ok {
		return false, nil
	}
	r.store.slots[slot.ID] = slot
	return true, nil
}

func (r *memSlotRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := r.store.slots[id]; !ok {
		return false, nil
	}
	delete(r.store.slots, id)
	return true, nil
}

func (r *memSlotRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Slot, error) {
	if r.store.slotGetErr != nil {
		return domain.Slot{}, r.store.slotGetErr
	}
	slot, ok := r.store.slots[id]
	if !ok {
		return domain.Slot{}, repository.ErrNotFound
	}
	return slot, nil
}

func (r *memSlotRepo) ListByClass(_ context.Context, classID uuid.UUID) ([]domain.Slot, error) {
	var slots []domain.Slot
	for _, slot := range r.store.slots {
		if slot.ClassID == classID {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots, nil
}

func (r *memSlotRepo) ListByClassDay(_ context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error) {
	var slots []domain.Slot
	for _, slot := range r.store.slots {
		if slot.ClassID == classID && slot.Weekday == weekday {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots, nil
}

func (r *memSlotRepo) LockClassDay(_ context.Context, classID uuid.UUID, weekday int) error {
	r.locked[lockKey(classID, weekday)] = true
	return nil
}

func (r *memSlotRepo) ListByClassDayForUpdate(ctx context.Context, classID uuid.UUID, weekday int) ([]domain.Slot, error) {
	if !r.locked[lockKey(classID, weekday)] {
		return nil, fmt.Errorf("class-day %s not locked before overlap scan", lockKey(classID, weekday))
	}
	return r.ListByClassDay(ctx, classID, weekday)
}

type memAttendanceRepo struct {
	store *memStore
}

func keyOf(record domain.AttendanceRecord) recordKey {
	return recordKey{
		studentID: record.StudentID,
		date:      record.Date.Format("2006-01-02"),
		subject:   record.Subject,
	}
}

func (r *memAttendanceRepo) Upsert(_ context.Context, record domain.AttendanceRecord) error {
	r.store.records[keyOf(record)] = record
	return nil
}

func inRange(record domain.AttendanceRecord, from, to *time.Time) bool {
	if from != nil && record.Date.Before(domain.DateOnly(*from)) {
		return false
	}
	if to != nil && record.Date.After(domain.DateOnly(*to)) {
		return false
	}
	return true
}

func (r *memAttendanceRepo) ListByStudent(_ context.Context, studentID uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	for _, record := range r.store.records {
		if record.StudentID == studentID && inRange(record, from, to) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *memAttendanceRepo) ListByStudents(_ context.Context, studentIDs []uuid.UUID, from, to *time.Time) ([]domain.AttendanceRecord, error) {
	members := make(map[uuid.UUID]bool, len(studentIDs))
	for _, id := range studentIDs {
		members[id] = true
	}
	var records []domain.AttendanceRecord
	for _, record := range r.store.records {
		if members[record.StudentID] && inRange(record, from, to) {
			records = append(records, record)
		}
	}
	return records, nil
}

func (r *memAttendanceRepo) ListByDate(_ context.Context, date time.Time) ([]domain.AttendanceRecord, error) {
	day := domain.DateOnly(date)
	var records []domain.AttendanceRecord
	for _, record := range r.store.records {
		if record.Date.Equal(day) {
			records = append(records, record)
		}
	}
	return records, nil
}

type memNoticeRepo struct {
	store *memStore
}

func (r *memNoticeRepo) Insert(_ context.Context, notice domain.Notice) error {
	r.store.notices = append(r.store.notices, notice)
	return nil
}

func (r *memNoticeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Notice, error) {
	if r.store.noticeGetErr != nil {
		return domain.Notice{}, r.store.noticeGetErr
	}
	for _, notice := range r.store.notices {
		if notice.ID == id {
			return notice, nil
		}
	}
	return domain.Notice{}, repository.ErrNotFound
}

func (r *memNoticeRepo) ListByClass(_ context.Context, classID uuid.UUID) ([]domain.Notice, error) {
	var notices []domain.Notice
	for _, notice := range r.store.notices {
		if notice.ClassID == classID {
			notices = append(notices, notice)
		}
	}
	sort.Slice(notices, func(i, j int) bool {
		if !notices[i].CreatedAt.Equal(notices[j].CreatedAt) {
			return notices[i].CreatedAt.After(notices[j].CreatedAt)
		}
		return bytes.Compare(notices[i].ID[:], notices[j].ID[:]) > 0
	})
	return notices, nil
}

func noticeAfterCursor(notice domain.Notice, after time.Time, afterID uuid.UUID) bool {
	if !notice.CreatedAt.Equal(after) {
		return notice.CreatedAt.After(after)
	}
	return bytes.Compare(notice.ID[:], afterID[:]) > 0
}

func (r *memNoticeRepo) ListMachineAfter(ctx context.Context, classID uuid.UUID, after time.Time, afterID uuid.UUID) ([]domain.Notice, error) {
	all, err := r.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	var notices []domain.Notice
	for _, notice := range all {
		if notice.IsMachine() && noticeAfterCursor(notice, after, afterID) {
			notices = append(notices, notice)
		}
	}
	return notices, nil
}

type memOutboxRepo struct {
	store *memStore
}

func (r *memOutboxRepo) Insert(_ context.Context, event domain.SlotEvent) error {
	r.store.events = append(r.store.events, memEvent{event: event})
	return nil
}

func (r *memOutboxRepo) ListUnpublished(_ context.Context, limit int) ([]domain.SlotEvent, error) {
	var events []domain.SlotEvent
	for _, entry := range r.store.events {
		if entry.published {
			continue
		}
		events = append(events, entry.event)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (r *memOutboxRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	for i, entry := range r.store.events {
		if entry.event.ID == id {
			r.store.events[i].published = true
			return nil
		}
	}
	return ErrNotFound
}

// fakeDirectory serves class identity and membership from a map.
type fakeDirectory struct {
	classes map[uuid.UUID][]uuid.UUID
}

func (d *fakeDirectory) ClassExists(_ context.Context, classID uuid.UUID) (bool, error) {
	_, ok := d.classes[classID]
	return ok, nil
}

func (d *fakeDirectory) ClassMembers(_ context.Context, classID uuid.UUID) ([]uuid.UUID, error) {
	members, ok := d.classes[classID]
	if !ok {
		return nil, ErrNotFound
	}
	return members, nil
}

func (d *fakeDirectory) ListClasses(_ context.Context) ([]DirectoryClass, error) {
	ids := make([]uuid.UUID, 0, len(d.classes))
	for id := range d.classes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	classes := make([]DirectoryClass, 0, len(ids))
	for _, id := range ids {
		classes = append(classes, DirectoryClass{ID: id, Name: "class " + id.String()[:8]})
	}
	return classes, nil
}

// memCursorStore is an in-memory CursorStore.
type memCursorStore struct {
	cursors map[string]memCursor
}

type memCursor struct {
	at time.Time
	id uuid.UUID
}

func newMemCursorStore() *memCursorStore {
	return &memCursorStore{cursors: make(map[string]memCursor)}
}

func (s *memCursorStore) SeenCursor(_ context.Context, userID, classID uuid.UUID) (time.Time, uuid.UUID, error) {
	cursor := s.cursors[userID.String()+":"+classID.String()]
	return cursor.at, cursor.id, nil
}

func (s *memCursorStore) AdvanceSeenCursor(_ context.Context, userID, classID uuid.UUID, seenAt time.Time, seenID uuid.UUID) error {
	key := userID.String() + ":" + classID.String()
	current := s.cursors[key]
	if noticeAfterCursor(domain.Notice{ID: seenID, CreatedAt: seenAt}, current.at, current.id) {
		s.cursors[key] = memCursor{at: seenAt, id: seenID}
	}
	return nil
}

// stepClock returns strictly increasing instants starting at base.
func stepClock(base time.Time) func() time.Time {
	step := 0
	return func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Millisecond)
	}
}
