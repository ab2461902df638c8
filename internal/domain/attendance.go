package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceRecord is one attendance fact. The (StudentID, Date, Subject)
// triple is unique; later writes for the same triple overwrite Present.
type AttendanceRecord struct {
	StudentID uuid.UUID
	Date      time.Time
	Subject   string
	Present   bool
}

// StudentMark is one entry of a commit batch.
type StudentMark struct {
	StudentID uuid.UUID
	Present   bool
}

// DateOnly truncates a clock reading to its local calendar day.
func DateOnly(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}
