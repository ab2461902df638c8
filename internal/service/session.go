package service

import (
	"time"

	"service-attendance/internal/domain"
)

// LiveSlot returns the slot containing the given instant, if any. The match
// is inclusive on both bounds (a session at 09:00-10:00 is live at exactly
// 10:00), unlike the half-open convention used for conflict detection; the
// asymmetry mirrors how the schedule has always been read. When boundary
// equality makes two slots match, the earliest-starting one wins.
//
// Pure function: no caching, re-evaluated on every call.
func LiveSlot(slots []domain.Slot, now time.Time) (domain.Slot, bool) {
	weekday := domain.WeekdayOf(now)
	if weekday == domain.Sunday {
		return domain.Slot{}, false
	}
	minute := domain.MinuteOf(now)

	var live domain.Slot
	found := false
	for _, slot := range slots {
		if slot.Weekday != weekday || !slot.Contains(minute) {
			continue
		}
		if !found || slot.StartMinute < live.StartMinute {
			live = slot
			found = true
		}
	}
	return live, found
}
