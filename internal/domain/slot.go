package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Weekday numbering: 1=Monday .. 6=Saturday. Sunday carries no slots and is
// represented as 7 only when derived from a clock reading.
const (
	WeekdayMin = 1
	WeekdayMax = 6
	Sunday     = 7
)

type Slot struct {
	ID          uuid.UUID
	ClassID     uuid.UUID
	Weekday     int
	Subject     string
	Instructor  string
	StartMinute int
	EndMinute   int
}

// Overlaps reports whether the half-open intervals [s.Start, s.End) and
// [other.Start, other.End) intersect. Touching endpoints do not overlap.
func (s Slot) Overlaps(other Slot) bool {
	return s.StartMinute < other.EndMinute && other.StartMinute < s.EndMinute
}

// Contains reports whether the given minute of day falls inside the slot,
// inclusive on both bounds.
func (s Slot) Contains(minute int) bool {
	return s.StartMinute <= minute && minute <= s.EndMinute
}

// WeekdayOf maps a wall-clock reading to the 1..6 numbering, or Sunday.
func WeekdayOf(t time.Time) int {
	weekday := t.In(time.Local).Weekday()
	if weekday == time.Sunday {
		return Sunday
	}
	return int(weekday)
}

// MinuteOf returns the minute-of-day for a wall-clock reading.
func MinuteOf(t time.Time) int {
	local := t.In(time.Local)
	return local.Hour()*60 + local.Minute()
}

// ParseClock parses an "HH:MM" wall-clock string into a minute of day.
func ParseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// FormatClock renders a minute of day as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
