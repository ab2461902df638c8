package domain

import "github.com/google/uuid"

// SubjectBreakdown aggregates a class's records for one subject over a range.
type SubjectBreakdown struct {
	Subject         string
	TotalSessions   int
	PresentSessions int
	Percentage      int
}

// DailyClassActivity is one class's attendance summary for a calendar day.
// PresentCount is a distinct-student count: a student attending several
// subjects that day contributes once.
type DailyClassActivity struct {
	ClassID       uuid.UUID
	TotalStudents int
	PresentCount  int
	AbsentCount   int
}

// LowAttendanceAlert is a transient condition, recomputed on every read and
// never persisted.
type LowAttendanceAlert struct {
	StudentID  uuid.UUID
	Percentage int
	Threshold  int
}
