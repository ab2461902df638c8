package service

import (
	"errors"
	"fmt"

	"service-attendance/internal/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRange = errors.New("invalid time range")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrDenied       = errors.New("denied")
)

// Gate denial reasons.
const (
	DenyNotToday        = "not-today"
	DenyNoLiveSession   = "no-live-session"
	DenySubjectMismatch = "subject-mismatch"
)

// ConflictError reports the slot a proposed time range collides with.
type ConflictError struct {
	Existing domain.Slot
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"conflict with %s %s-%s",
		e.Existing.Subject,
		domain.FormatClock(e.Existing.StartMinute),
		domain.FormatClock(e.Existing.EndMinute),
	)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// DeniedError carries the attendance gate's refusal reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return "attendance denied: " + e.Reason }

func (e *DeniedError) Is(target error) bool { return target == ErrDenied }
